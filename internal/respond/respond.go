// Package respond writes JSON responses and the uniform error envelope
// {"statusCode", "error", "message"} used by every API endpoint.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/logger"
)

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Status writes an error envelope for a bare status code.
func Status(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	JSON(w, status, ErrorBody{StatusCode: status, Error: http.StatusText(status), Message: message})
}

// Error classifies err and writes the matching envelope. Unclassified
// errors are logged and answered with a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		Status(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if ae.Kind == apperr.KindInternal && ae.Err != nil {
		logger.FromContext(r.Context()).Error("request failed", zap.String("path", r.URL.Path), zap.Error(ae.Err))
	}
	status := ae.Kind.Status()
	JSON(w, status, ErrorBody{StatusCode: status, Error: ae.Kind.String(), Message: ae.Message})
}

// Decode reads a JSON request body into dst, rejecting unknown fields and
// trailing data.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.BadRequest("Request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("Invalid JSON body: %s", describe(err)).Wrap(err)
	}
	if dec.More() {
		return apperr.BadRequest("Invalid JSON body: unexpected trailing data")
	}
	return nil
}

func describe(err error) string {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &syn):
		return fmt.Sprintf("syntax error at offset %d", syn.Offset)
	case errors.As(err, &typ):
		return fmt.Sprintf("field %q must be %s", typ.Field, typ.Type)
	case errors.As(err, &maxErr):
		return "body too large"
	case err.Error() == "EOF":
		return "empty body"
	default:
		return err.Error()
	}
}
