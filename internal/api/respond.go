package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/internal/store"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// The status line is out; an encode failure here can only truncate.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err in the error envelope with a status derived from
// its type.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func badRequestf(w http.ResponseWriter, format string, args ...any) {
	badRequest(w, fmt.Errorf(format, args...))
}

// statusFor maps typed errors from the store, the session pool and the
// plugin layer onto HTTP status codes. Anything unrecognized is a 500.
func statusFor(err error) int {
	var unknownPlugin *plugin.UnknownPluginError
	var connectErr *plugin.ConnectError
	var badReq *badRequestError
	switch {
	case errors.Is(err, store.ErrNotFound) || errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidName) || errors.As(err, &unknownPlugin) || errors.As(err, &badReq):
		return http.StatusBadRequest
	case errors.Is(err, plugin.ErrPoolExhausted):
		return http.StatusServiceUnavailable
	case errors.As(err, &connectErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// badRequestError forces a 400 for errors that have no sentinel of their
// own, such as malformed connection params.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// emptyIfNil keeps list endpoints returning [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
