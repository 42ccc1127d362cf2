// Package httpapi holds the JSON wire helpers shared by the API
// controllers and the outer server handlers (unmatched routes, tenant
// header checks).
package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the one error shape the API speaks: a stable machine
// code, a human message, and correlation data under meta (request_id).
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// WriteJSON writes payload with the given status. A nil payload sends the
// status and headers only.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteRequestError tags the envelope with the request id the handler
// resolved, so callers can quote it back when reporting a failure.
func WriteRequestError(w http.ResponseWriter, status int, requestID, code, message string) error {
	var meta map[string]string
	if requestID != "" {
		meta = map[string]string{"request_id": requestID}
	}
	return WriteError(w, status, code, message, meta)
}
