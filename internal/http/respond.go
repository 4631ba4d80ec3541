package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"catering/internal/core"
	"catering/internal/log"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps domain errors onto status codes and logs server faults.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, core.ErrEmptyUpdate):
		writeDetail(w, http.StatusNotFound, "Meal not found or no new data to update")
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: verr.Err.Error(), Field: verr.Field})
	case errors.Is(err, core.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Meal not found")
	default:
		log.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, op, log.ErrorTypeInternal)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.NewValidationError("body", fmt.Errorf("invalid JSON: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return core.NewValidationError("body", errors.New("unexpected data after JSON object"))
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(name, fmt.Errorf("%q is not an integer", raw))
	}
	return n, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(name, fmt.Errorf("%q is not an integer", raw))
	}
	return n, nil
}

func formInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.PostFormValue(name))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(name, fmt.Errorf("%q is not an integer", raw))
	}
	return n, nil
}
