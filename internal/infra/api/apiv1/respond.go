package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"

	"gymdesk/internal/domain"
	"gymdesk/internal/infra/logging"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors onto status codes and localized messages.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := http.StatusInternalServerError, "internal", s.tr.T("error.internal")
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, code, msg = http.StatusUnauthorized, "unauthenticated", s.tr.T("error.unauthenticated")
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", s.tr.T("error.not_found")
	case errors.Is(err, domain.ErrEmptySheet):
		status, code, msg = http.StatusBadRequest, "empty_sheet", s.tr.T("error.empty_sheet")
	case errors.As(err, &ve):
		status, code, msg = http.StatusBadRequest, "invalid", s.tr.T("error.invalid", ve.Field+": "+ve.Reason)
	case errors.Is(err, domain.ErrInvalidArgument):
		status, code, msg = http.StatusBadRequest, "invalid", s.tr.T("error.invalid", err.Error())
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status, code, msg = http.StatusConflict, "conflict", s.tr.T("error.conflict")
	case errors.Is(err, domain.ErrAlreadyExists):
		status, code, msg = http.StatusConflict, "already_exists", s.tr.T("error.conflict")
	case errors.Is(err, domain.ErrLocked):
		status, code, msg = http.StatusLocked, "locked", s.tr.T("error.locked")
	case errors.Is(err, domain.ErrRateLimited):
		status, code, msg = http.StatusTooManyRequests, "rate_limited", s.tr.T("error.rate_limited")
	case errors.Is(err, domain.ErrOperationFailed):
		status, code, msg = http.StatusInternalServerError, "persistence", s.tr.T("error.persistence")
	}

	l := logging.With(r.Context(), s.log)
	if status >= 500 {
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: msg, TraceID: logging.TraceID(r.Context())}})
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return domain.Invalid("body", "is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("body", err.Error())
	}
	return nil
}
