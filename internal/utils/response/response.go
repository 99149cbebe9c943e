// Package response provides helpers for writing consistent HTTP responses.
//
// Most endpoints answer with JSON or with nothing at all. The two email
// failures on POST /add answer with a bare text message, which existing
// clients display as-is, so a plain-text writer lives here too.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for JSON error cases:
//
//	{ "status": "error", "error": "field ID is required" }
//
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Values of Response.Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteText writes msg as a text/plain body.
func WriteText(w http.ResponseWriter, status int, msg string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(msg))
	return err
}

// WriteEmpty writes only the status line, with no body.
func WriteEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// ─────────────────────────────────────────────────────────────────────────────
// GeneralError wraps any Go error into our standard Response shape.
// Use this for unexpected errors (DB failures, decode errors, etc.)
// ─────────────────────────────────────────────────────────────────────────────
func GeneralError(err error) Response {
	return Response{Status: StatusError, Error: err.Error()}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
// Example output:
//
//	{ "status": "error", "error": "field ID must be a valid UUID" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return Response{Status: StatusError, Error: strings.Join(msgs, ", ")}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is required", fe.Field())
	case "uuid":
		return fmt.Sprintf("field %s must be a valid UUID", fe.Field())
	case "max":
		return fmt.Sprintf("field %s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("field %s is invalid", fe.Field())
	}
}
