package server

import (
	"encoding/json"
	"net/http"

	errorsx "github.com/grubsnap/identity/internal/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// errorResponse is the error payload: {"detail": "..."}.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

// writeError maps an error to a status by its taxonomy kind and logs it at
// the matching severity. Security rejections are logged distinctly: repeated
// occurrences indicate an attack, not user error. Infrastructure outages are
// never presented as invalid credentials.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errorsx.KindOf(err)
	status := statusFor(err, kind)

	switch kind {
	case errorsx.KindSecurity:
		s.log.Warn().Err(err).Str("kind", "security").Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("request rejected")
	case errorsx.KindInfrastructure:
		s.log.Error().Err(err).Str("kind", "infrastructure").Str("path", r.URL.Path).Msg("request failed")
	case errorsx.KindClient:
		s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	s.writeJSON(w, status, errorResponse{Detail: publicDetail(err, kind)})
}

func statusFor(err error, kind errorsx.Kind) int {
	switch {
	case errorsx.Is(err, errorsx.ErrTooManyAttempts),
		errorsx.Is(err, errorsx.ErrResendLimitReached):
		return http.StatusTooManyRequests
	case kind == errorsx.KindClient:
		return http.StatusBadRequest
	case kind == errorsx.KindSecurity:
		return http.StatusUnauthorized
	case kind == errorsx.KindInfrastructure:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// publicDetail keeps wrapped internals out of responses: clients get the
// sentinel's stable message, not the call-site context.
func publicDetail(err error, kind errorsx.Kind) string {
	for _, sentinel := range []error{
		errorsx.ErrAlreadyRegistered,
		errorsx.ErrSessionNotFound,
		errorsx.ErrSessionExpired,
		errorsx.ErrTooManyAttempts,
		errorsx.ErrInvalidCode,
		errorsx.ErrPasswordMismatch,
		errorsx.ErrResendLimitReached,
		errorsx.ErrUnknownSigningKey,
		errorsx.ErrBadSignature,
		errorsx.ErrInvalidIssuer,
		errorsx.ErrAudienceMismatch,
		errorsx.ErrTokenExpired,
		errorsx.ErrTokenNotYetValid,
		errorsx.ErrNonceMismatch,
		errorsx.ErrUnknownProvider,
		errorsx.ErrKeySourceUnavailable,
		errorsx.ErrStoreUnavailable,
	} {
		if errorsx.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	if kind == errorsx.KindInfrastructure {
		return "service temporarily unavailable"
	}
	return "internal error"
}

// decodeJSON parses a request body into dst and runs its validation.
func decodeJSON(r *http.Request, dst interface{ Validate() error }) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return dst.Validate()
}
