// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/models"
	"github.com/tomtom215/shopranker/internal/validation"
)

// APIResponse is the envelope for every endpoint.
type APIResponse struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data,omitempty"`
	Message  string    `json:"message,omitempty"`
	Degraded bool      `json:"degraded,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Meta     *APIMeta  `json:"meta,omitempty"`
}

// APIError is the error body.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta describes a ranked response.
type APIMeta struct {
	RequestID   string         `json:"request_id,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Surface     models.Surface `json:"surface,omitempty"`
	Count       int            `json:"count"`
	Limit       int            `json:"limit,omitempty"`
	Strategy    string         `json:"strategy,omitempty"`
	Cached      bool           `json:"cached,omitempty"`
	QueryTimeMS int64          `json:"query_time_ms"`
}

// Error codes
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// writeJSON sends a JSON response with proper headers
func writeJSON(w http.ResponseWriter, status int, resp *APIResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeJSON(w, status, &APIResponse{
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

// writeError maps an error kind onto a status and error code. It is the only
// place that makes that decision.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		apiErr := verr.ToAPIError()
		writeErrorCode(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrValidationFailed):
		writeErrorCode(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, causeMessage(err), nil)
	case models.IsNotFound(err):
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, notFoundMessage(err), nil)
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorCode(w, r, http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out", nil)
	case models.IsUnavailable(err), errors.Is(err, context.Canceled):
		writeErrorCode(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service temporarily unavailable", nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled API error")
		writeErrorCode(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
	}
}

// causeMessage returns the client-facing part of a classified error.
func causeMessage(err error) string {
	var me *models.Error
	if errors.As(err, &me) && me.Err != nil {
		return me.Err.Error()
	}
	return err.Error()
}

func notFoundMessage(err error) string {
	var me *models.Error
	if errors.As(err, &me) && me.Subject != "" {
		return "Not found: " + me.Subject
	}
	return "Not found"
}
