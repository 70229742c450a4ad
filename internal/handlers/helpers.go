package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"echelon-backend/internal/logger"
	"echelon-backend/internal/middleware"
	"echelon-backend/internal/models"
	"echelon-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr   *services.ValidationError
		notFoundErr     *services.NotFoundError
		unauthorizedErr *services.UnauthorizedError
		rateLimitErr    *services.RateLimitError
		configErr       *services.ConfigurationError
		upstreamErr     *services.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validationErr.Fields, r))
	case errors.Is(err, pgx.ErrNoRows):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Resource not found", r))
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFoundErr.Message, r))
	case errors.As(err, &unauthorizedErr):
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", unauthorizedErr.Message, r))
	case errors.As(err, &rateLimitErr):
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", rateLimitErr.Message, r))
	case errors.As(err, &configErr):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("CONFIGURATION_ERROR", configErr.Error(), r))
	case errors.As(err, &upstreamErr):
		writeJSON(w, upstreamErr.Status, errorResp("UPSTREAM_ERROR", upstreamMessage(upstreamErr), r))
	default:
		logger.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

func upstreamMessage(err *services.UpstreamError) string {
	if strings.TrimSpace(err.Message) == "" {
		return "Failed to get AI response"
	}
	return err.Message
}

// Unavailable answers every request for a feature whose configuration is missing.
func Unavailable(feature string, missing []string) http.HandlerFunc {
	cfgErr := &services.ConfigurationError{Feature: feature, Missing: missing}
	return func(w http.ResponseWriter, r *http.Request) {
		handleServiceError(w, r, cfgErr)
	}
}
