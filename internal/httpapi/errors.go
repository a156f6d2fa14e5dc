package httpapi

import (
	"errors"
	"net/http"

	"github.com/tallyhq/tally/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }

// writeServiceErr maps service errors onto status codes by kind. Callers get
// enough to pick a retry policy: 404 for missing refs, 412 for a broken root
// precondition, 502 for oracle trouble, 400 for their own bad input.
func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, errs.ErrValidation):
		writeErr(w, http.StatusBadRequest, err.Error(), "validation")
	case errors.Is(err, errs.ErrPrecondition):
		writeErr(w, http.StatusPreconditionFailed, err.Error(), "precondition_failed")
	case errors.Is(err, errs.ErrConflict):
		writeErr(w, http.StatusConflict, err.Error(), "conflict")
	case errors.Is(err, errs.ErrExternalService):
		writeErr(w, http.StatusBadGateway, err.Error(), "external_service")
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "")
	}
}
