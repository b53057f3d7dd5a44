package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/roster"
	"infinite-experiment/poolroster/internal/services"
	"infinite-experiment/poolroster/internal/spreadsheet"
)

// handleError maps service errors to appropriate HTTP responses
func handleError(w http.ResponseWriter, initTime time.Time, err error) {
	code := errorCodeFor(err)
	common.RespondError(w, initTime, err, code, mapErrorCodeToHTTPStatus(code))
}

func errorCodeFor(err error) string {
	var partial *services.PartialBatchError
	switch {
	case errors.As(err, &partial):
		return constants.ErrCodePartialBatch
	case errors.Is(err, services.ErrEmptyBatch):
		return constants.ErrCodeEmptyBatch
	case errors.Is(err, services.ErrInvalidMode):
		return constants.ErrCodeInvalidMode
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		return constants.ErrCodeUnsupportedFormat
	case errors.Is(err, spreadsheet.ErrMissingColumns):
		return constants.ErrCodeMissingColumns
	case errors.Is(err, spreadsheet.ErrNoRows):
		return constants.ErrCodeNoRows
	case errors.Is(err, roster.ErrGuestNotFound):
		return constants.ErrCodeGuestNotFound
	case errors.Is(err, roster.ErrRosterLoading):
		return constants.ErrCodeRosterLoading
	case errors.Is(err, services.ErrInsufficientHistory):
		return constants.ErrCodeInsufficientHistory
	case errors.Is(err, common.ErrLockHeld), errors.Is(err, context.DeadlineExceeded):
		return constants.ErrCodeReplaceInProgress
	case errors.Is(err, services.ErrInvalidCredential):
		return constants.ErrCodeInvalidCredential
	case errors.Is(err, services.ErrAdminDisabled):
		return constants.ErrCodeAdminDisabled
	case errors.Is(err, services.ErrInvalidToken):
		return constants.ErrCodeInvalidToken
	default:
		return constants.ErrCodeInternal
	}
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func mapErrorCodeToHTTPStatus(errorCode string) int {
	switch errorCode {
	// 400 Bad Request - Client errors (user action required)
	case constants.ErrCodeEmptyBatch,
		constants.ErrCodeInvalidMode,
		constants.ErrCodeMissingColumns,
		constants.ErrCodeNoRows,
		constants.ErrCodeMalformedRequest,
		constants.ErrCodeConsoleNotRegistered:
		return http.StatusBadRequest

	// 415 Unsupported Media Type
	case constants.ErrCodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType

	// 404 Not Found - Resource doesn't exist
	case constants.ErrCodeGuestNotFound:
		return http.StatusNotFound

	// 409 Conflict - State prevents the operation
	case constants.ErrCodeReplaceInProgress,
		constants.ErrCodeRosterLoading:
		return http.StatusConflict

	// 422 - Valid request, not enough data
	case constants.ErrCodeInsufficientHistory:
		return http.StatusUnprocessableEntity

	// 401 Unauthorized - Authentication failed
	case constants.ErrCodeInvalidCredential,
		constants.ErrCodeInvalidToken:
		return http.StatusUnauthorized

	// 403 Forbidden - Feature disabled
	case constants.ErrCodeAdminDisabled:
		return http.StatusForbidden

	// 429 Too Many Requests - Rate limiting
	case constants.ErrCodeRateLimited:
		return http.StatusTooManyRequests

	// 502 - A sub-batch commit failed partway
	case constants.ErrCodePartialBatch:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
