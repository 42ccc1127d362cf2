package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/trackforge/assetflow/modules/assets/services"
	"github.com/trackforge/assetflow/pkg/composables"
	"github.com/trackforge/assetflow/pkg/configuration"
	"github.com/trackforge/assetflow/pkg/httpapi"
)

func ensureRequestID(r *http.Request) string {
	conf := configuration.Use()
	v := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader))
	if v != "" {
		return v
	}
	v = uuid.NewString()
	r.Header.Set(conf.RequestIDHeader, v)
	return v
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Status >= http.StatusInternalServerError {
			logUnexpected(r, requestID, err)
		}
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	// Anything untyped is a bug or an outage. The cause goes to the log;
	// the client gets a fixed message.
	logUnexpected(r, requestID, err)
	writeAPIError(w, http.StatusInternalServerError, requestID, services.CodeInternal, "internal error")
}

func logUnexpected(r *http.Request, requestID string, err error) {
	if log, ok := composables.TryUseLogger(r.Context()); ok {
		log.WithField("request_id", requestID).WithError(err).Error("request failed")
	}
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	_ = httpapi.WriteRequestError(w, status, requestID, code, message)
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
