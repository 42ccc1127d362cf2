package serrors

// BaseError is a structured error carrying a stable machine-readable code
// alongside the human-readable message. LocalizationKey is optional and is
// consumed by presentation layers that translate errors.
type BaseError struct {
	Code            string
	Message         string
	LocalizationKey string
}

func (e *BaseError) Error() string {
	return e.Message
}

func NewError(code, message, localizationKey string) *BaseError {
	return &BaseError{
		Code:            code,
		Message:         message,
		LocalizationKey: localizationKey,
	}
}
