package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"nitroScope/internal/api"
	"nitroScope/internal/position"
	"nitroScope/internal/report"
	"nitroScope/internal/valuation"
)

var (
	errMissingAddress = errors.New("address is required")
	errInvalidAddress = errors.New("not a hex address")
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps a build error to an HTTP status and error code.
func classify(err error) (int, string) {
	var mismatch *position.PairMismatchError
	switch {
	case errors.Is(err, report.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, valuation.ErrInsufficientData), errors.Is(err, valuation.ErrShareExceedsTotal):
		return http.StatusUnprocessableEntity, "insufficient_data"
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity, "pair_mismatch"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
