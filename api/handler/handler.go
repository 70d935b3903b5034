// Package handler implements the HTTP API endpoints.
package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/use-agent/serpent/models"
)

// activeSessions counts search sessions currently holding a browser,
// exposed through the health endpoint.
var activeSessions atomic.Int64

// mapErrorToStatus maps internal error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeInvalidQuery, models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeLaunchFailure:
		return http.StatusServiceUnavailable
	case models.ErrCodeNavigation, models.ErrCodeFetchFailed:
		return http.StatusBadGateway
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// toDetail converts any error into an API-facing ErrorDetail, preserving
// the code when the error is a SearchError.
func toDetail(err error) *models.ErrorDetail {
	var se *models.SearchError
	if errors.As(err, &se) {
		return se.ToDetail()
	}
	return &models.ErrorDetail{
		Code:    models.ErrCodeInternal,
		Message: err.Error(),
	}
}

// randomID generates a short random hex identifier for batch jobs.
func randomID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(b)
}
