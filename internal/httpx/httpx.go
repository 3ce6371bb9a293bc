// Package httpx holds the JSON envelope shared by handlers and middleware.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teamx/teamfinder/internal/apperr"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

type ErrorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// JSON writes payload with status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error maps err to a status through its apperr kind. Unclassified errors
// are logged and answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		e = apperr.New(apperr.KindInternal, "Internal server error")
	}

	switch e.Kind {
	case apperr.KindInternal:
		if ok {
			slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		}
	case apperr.KindUpstream:
		slog.Error("upstream failure", "error", err, "method", r.Method, "path", r.URL.Path)
	}

	JSON(w, e.Kind.HTTPStatus(), errorEnvelope{
		Error: ErrorBody{
			Kind:    e.Kind.String(),
			Message: e.Message,
			Fields:  e.Fields,
		},
	})
}

// ErrorStatus writes an error envelope for failures raised outside the
// service layer (rate limiting, routing).
func ErrorStatus(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, errorEnvelope{
		Error: ErrorBody{Kind: kind, Message: message},
	})
}

// Decode reads a JSON body into dst, rejecting unknown fields, trailing data
// and bodies over MaxBodyBytes.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		return apperr.Validation(map[string]string{"body": decodeMessage(err)})
	}

	if dec.More() {
		return apperr.Validation(map[string]string{"body": "request body must contain a single JSON object"})
	}
	return nil
}

func decodeMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "request body is not valid JSON"
	case errors.As(err, &typeErr):
		return "field " + typeErr.Field + " has the wrong type"
	case errors.As(err, &maxErr):
		return "request body is too large"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return "invalid request body"
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
