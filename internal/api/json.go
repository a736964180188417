package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"ilds/internal/graph"
	"ilds/internal/routing"
	"ilds/internal/scheduling"
	"ilds/internal/store"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

var errEdgeNotFound = errors.New("edge not found")

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, title := http.StatusInternalServerError, "Internal error"
	switch {
	case errors.Is(err, routing.ErrUnknownNode):
		status, title = http.StatusNotFound, "Unknown node"
	case errors.Is(err, graph.ErrInvalidArgument), errors.Is(err, routing.ErrUnknownPreference):
		status, title = http.StatusBadRequest, "Invalid argument"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, errEdgeNotFound):
		status, title = http.StatusNotFound, "Not Found"
	case errors.Is(err, scheduling.ErrUnknownVehicle):
		status, title = http.StatusNotFound, "Unknown vehicle"
	case errors.Is(err, store.ErrConflict), errors.Is(err, scheduling.ErrDuplicateVehicle), errors.Is(err, scheduling.ErrNotAssigned):
		status, title = http.StatusConflict, "Conflict"
	}
	writeProblem(w, status, title, err.Error(), r.URL.Path)
}

const maxBody = 4 << 20

// decode reads a JSON body into dst and validates it. On failure it writes
// the problem response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Validation failed", err.Error(), r.URL.Path)
		return false
	}
	return true
}

func queryLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 100, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", graph.ErrInvalidArgument)
	}
	return n, nil
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
