package services

import (
	"fmt"
	"net/http"
)

// Error codes for the lifecycle taxonomy. All four business outcomes are
// expected results and must stay distinguishable for callers: a Conflict
// means the business fact already changed, an InvalidState means the command
// makes no sense right now, a Forbidden means the caller may not decide.
const (
	CodeNotFound     = "ASSETS_NOT_FOUND"
	CodeInvalidState = "ASSETS_INVALID_STATE"
	CodeConflict     = "ASSETS_CONFLICT"
	CodeForbidden    = "ASSETS_FORBIDDEN"
	CodeInvalidBody  = "ASSETS_INVALID_BODY"
	CodeNoTenant     = "ASSETS_NO_TENANT"
	CodeInternal     = "ASSETS_INTERNAL"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func errNotFound(message string, cause error) *ServiceError {
	return newServiceError(http.StatusNotFound, CodeNotFound, message, cause)
}

func errInvalidState(message string) *ServiceError {
	return newServiceError(http.StatusUnprocessableEntity, CodeInvalidState, message, nil)
}

func errConflict(message string, cause error) *ServiceError {
	return newServiceError(http.StatusConflict, CodeConflict, message, cause)
}

func errForbidden(message string) *ServiceError {
	return newServiceError(http.StatusForbidden, CodeForbidden, message, nil)
}

func errInvalidBody(message string) *ServiceError {
	return newServiceError(http.StatusBadRequest, CodeInvalidBody, message, nil)
}
