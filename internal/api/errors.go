package api

import (
	stderrors "errors"
	"net/http"

	"bazi/internal/errors"
	"bazi/internal/output"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error          string             `json:"error"`
	Code           string             `json:"code"`
	Details        interface{}        `json:"details,omitempty"`
	SuggestedFixes []errors.FixAction `json:"suggestedFixes,omitempty"`
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err error, status int) {
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  string(errors.InternalError),
	}

	var be *errors.BaziError
	if stderrors.As(err, &be) {
		resp.Code = string(be.Code)
		resp.Details = be.Details
		resp.SuggestedFixes = be.SuggestedFixes
	}

	WriteJSON(w, resp, status)
}

// WriteBaziError writes err with the status its code maps to.
func WriteBaziError(w http.ResponseWriter, err error) {
	WriteError(w, err, MapErrorToStatus(errors.CodeOf(err)))
}

// MapErrorToStatus maps error codes to HTTP status codes
func MapErrorToStatus(code errors.ErrorCode) int {
	switch code {
	case errors.InvalidBirthSpec, errors.InvalidPillar, errors.InvalidRange, errors.InvalidSelection, errors.InvalidRequest:
		return http.StatusBadRequest // 400
	case errors.LunarConversionFailed:
		return http.StatusUnprocessableEntity // 422
	case errors.CaseNotFound, errors.JobNotFound, errors.CityNotFound:
		return http.StatusNotFound // 404
	case errors.JobNotCancellable:
		return http.StatusConflict // 409
	case errors.StorageError:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a deterministic JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	body, err := output.DeterministicEncode(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"INTERNAL_ERROR","error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte{'\n'})
}

// BadRequest writes a 400 Bad Request error
func BadRequest(w http.ResponseWriter, code errors.ErrorCode, message string) {
	WriteError(w, errors.Newf(code, "%s", message), http.StatusBadRequest)
}

// MethodNotAllowed writes a 405 with the allowed methods.
func MethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	WriteError(w, errors.Newf(errors.InternalError, "method not allowed"), http.StatusMethodNotAllowed)
}

// InternalError writes a 500 Internal Server Error
func InternalError(w http.ResponseWriter, message string, err error) {
	WriteError(w, errors.New(errors.InternalError, message, err), http.StatusInternalServerError)
}
