package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/identity"
	"github.com/plateshare/plateshare/internal/lifecycle"
	"github.com/plateshare/plateshare/internal/model"
)

// Error codes carried in the "code" field of error responses.
const (
	codeValidation      = "validation"
	codeNotFound        = "not_found"
	codeForbidden       = "forbidden"
	codeConflict        = "conflict"
	codePartialFailure  = "partial_failure"
	codeUnauthenticated = "unauthenticated"
	codeTransport       = "transport"
	codeInternal        = "internal"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Field   string         `json:"field,omitempty"`
	Request *model.Request `json:"request,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logrus.WithError(err).Error("encoding response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, errorResponse{Error: message, Code: code})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// writeError maps err onto a status code and error body. Unknown errors
// are logged and reported as internal.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var verr *model.ValidationError
	var pf *lifecycle.PartialFailureError

	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusBadRequest, errorResponse{
			Error: verr.Message,
			Code:  codeValidation,
			Field: verr.Field,
		})
	case errors.As(err, &pf):
		req := pf.Request
		jsonResponse(w, http.StatusInternalServerError, errorResponse{
			Error:   pf.Error(),
			Code:    codePartialFailure,
			Request: &req,
		})
	case errors.Is(err, model.ErrPartialFailure):
		jsonError(w, http.StatusInternalServerError, codePartialFailure, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, model.ErrForbidden):
		jsonError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, model.ErrConflict):
		jsonError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, identity.ErrUnauthenticated), errors.Is(err, identity.ErrPending):
		jsonError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
	case errors.Is(err, model.ErrTransport):
		log.WithError(err).Warn("upstream failure")
		jsonError(w, http.StatusBadGateway, codeTransport, "upstream unavailable")
	default:
		log.WithError(err).Error("request failed")
		jsonError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
