// Package httputil writes JSON responses and maps coded domain errors to HTTP statuses.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "minbar/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeInvalidTransition:         http.StatusConflict,
	dErrors.CodeBanned:                    http.StatusForbidden,
	dErrors.CodeReapplicationNotGranted:   http.StatusForbidden,
	dErrors.CodeInstitutionNotFound:       http.StatusNotFound,
	dErrors.CodeInstitutionAlreadyClaimed: http.StatusConflict,
	dErrors.CodeInvalidVerificationCode:   http.StatusUnprocessableEntity,
	dErrors.CodeConflict:                  http.StatusConflict,
	dErrors.CodeTimeout:                   http.StatusGatewayTimeout,
	dErrors.CodeNotFound:                  http.StatusNotFound,
	dErrors.CodeValidation:                http.StatusBadRequest,
	dErrors.CodeBadRequest:                http.StatusBadRequest,
	dErrors.CodeUnauthorized:              http.StatusUnauthorized,
	dErrors.CodeForbidden:                 http.StatusForbidden,
	dErrors.CodeRateLimited:               http.StatusTooManyRequests,
	dErrors.CodeInternal:                  http.StatusInternalServerError,
	dErrors.CodeInvariantViolation:        http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for err's code.
func StatusFor(err error) int {
	if status, ok := statusByCode[dErrors.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError writes err as an ErrorResponse. Server-side failures never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: string(dErrors.CodeOf(err))}
	if status == http.StatusInternalServerError {
		resp.Error = string(dErrors.CodeInternal)
	} else {
		resp.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, status, resp)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
