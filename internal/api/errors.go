package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/trajectory-plotter/core"
)

// StatusCode maps trajectory errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidParameter),
		errors.Is(err, core.ErrInvalidSpeed),
		errors.Is(err, core.ErrInvalidHeight),
		errors.Is(err, core.ErrInvalidAngle):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrRangeOverflow),
		errors.Is(err, core.ErrDegenerateInput):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, body string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(body))
	return err
}
