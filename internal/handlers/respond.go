package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rewardhub/backend/internal/services"
)

// Error kinds carried in every failure body so clients can branch without
// parsing messages.
const (
	KindValidation         = "validation"
	KindConflict           = "conflict"
	KindNotFound           = "not_found"
	KindUnauthorized       = "unauthorized"
	KindForbidden          = "forbidden"
	KindInsufficientPoints = "insufficient_points"
	KindRateLimited        = "rate_limited"
	KindTooFast            = "too_fast"
	KindDailyCap           = "daily_cap"
	KindUpstreamFailure    = "upstream_failure"
	KindInternal           = "internal"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{Message: msg, Kind: kind})
}

// writeValidation reports err (which wraps services.ErrValidation) without
// the sentinel prefix.
func writeValidation(w http.ResponseWriter, err error) {
	msg := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
	writeError(w, http.StatusBadRequest, KindValidation, msg)
}

// decodeJSON reads a JSON body of bounded size into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", services.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON", services.ErrValidation)
	}
	return nil
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", services.ErrValidation, name)
	}
	return id, nil
}
