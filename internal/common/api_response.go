package common

import (
	"encoding/json"
	"net/http"
	"time"

	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response. errorCode is one of
// the constants.ErrCode* values and selects the user-facing message.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, errorCode string, statusCode int) {
	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      constants.GetErrorMessage(errorCode),
		Code:         errorCode,
		ResponseTime: GetResponseTime(initTime),
	}

	if err != nil && statusCode >= http.StatusInternalServerError {
		logging.Error("Request failed", "code", errorCode, "status", statusCode, "error", err)
	}

	writeJSON(w, statusCode, response)
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}
