package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-switchd/internal/convertor"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeUnavailable    = "unavailable"
	ErrCodeNotImplemented = "not_implemented"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// resultStatus maps a completed operation result to an HTTP status.
func resultStatus(res service.Result) int {
	switch {
	case res.Success:
		return http.StatusOK
	case errors.Is(res.Err, service.ErrDeviceRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(res.Err, service.ErrPolicyConflict):
		return http.StatusConflict
	case errors.Is(res.Err, service.ErrCapacityExceeded):
		return http.StatusTooManyRequests
	case errors.Is(res.Err, service.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(res.Err, service.ErrSessionLost):
		return http.StatusServiceUnavailable
	case errors.Is(res.Err, convertor.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(res.Err, service.ErrUnexpectedReply):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeDispatchError writes the response for an operation Dispatch refused
// before anything was sent to the device.
func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidRequest), errors.Is(err, model.ErrInvalidEntity):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, service.ErrNoService):
		writeError(w, http.StatusNotImplemented, ErrCodeNotImplemented, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
