package server

import (
	"net/http"

	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/internal/metrics"
)

// StartSignupHandler opens an OTP-gated signup session and dispatches the
// code to the candidate address.
func (s *Server) StartSignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartSignupRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
			return
		}

		locale := req.Locale
		if locale == "" {
			locale = r.Header.Get("Accept-Language")
		}

		result, err := s.svc.Signup.Start(r.Context(), req.Email, req.Password, locale)
		if err != nil {
			metrics.SignupFailures.WithLabelValues("start").Inc()
			s.writeError(w, r, err)
			return
		}

		metrics.SignupStarted.Inc()
		s.writeJSON(w, http.StatusOK, StartSignupResponse{
			SessionID:  result.Session.ID,
			Email:      result.Session.Email,
			EmailSent:  result.EmailSent,
			TTLSeconds: int64(result.Session.ExpiresAt.Sub(result.Session.IssuedAt).Seconds()),
		})
	}
}

// VerifySignupHandler checks a one-time code, materializes the account, and
// mints its first credential pair.
func (s *Server) VerifySignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifySignupRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
			return
		}

		account, err := s.svc.Signup.Verify(r.Context(), req.SessionID, req.OTP, req.Password)
		if err != nil {
			metrics.SignupFailures.WithLabelValues(failureReason(err)).Inc()
			s.writeError(w, r, err)
			return
		}

		pair, err := s.svc.Issuer.Issue(account)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		metrics.SignupVerified.Inc()
		s.writeJSON(w, http.StatusCreated, VerifySignupResponse{
			Access:  pair.AccessToken,
			Refresh: pair.RefreshToken,
			User:    AccountOut{ID: account.ID, Email: account.Email},
		})
	}
}

// ResendSignupHandler re-issues a session's one-time code. Unlike Start, a
// delivery failure here is surfaced: the client explicitly asked for a mail.
func (s *Server) ResendSignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResendSignupRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
			return
		}

		result, err := s.svc.Signup.Resend(r.Context(), req.SessionID)
		if err != nil {
			metrics.SignupFailures.WithLabelValues(failureReason(err)).Inc()
			s.writeError(w, r, err)
			return
		}

		if !result.EmailSent {
			s.writeJSON(w, http.StatusBadGateway, errorResponse{Detail: "failed to send code"})
			return
		}

		s.writeJSON(w, http.StatusOK, ResendSignupResponse{
			OK:             true,
			TTLSecondsLeft: int64(result.TTLLeft.Seconds()),
			ResendsUsed:    result.ResendsUsed,
			ResendsLeft:    result.ResendsLeft,
		})
	}
}

// failureReason buckets signup errors for the failures counter.
func failureReason(err error) string {
	switch {
	case errorsx.Is(err, errorsx.ErrAlreadyRegistered):
		return "already_registered"
	case errorsx.Is(err, errorsx.ErrSessionNotFound):
		return "session_not_found"
	case errorsx.Is(err, errorsx.ErrSessionExpired):
		return "session_expired"
	case errorsx.Is(err, errorsx.ErrTooManyAttempts):
		return "too_many_attempts"
	case errorsx.Is(err, errorsx.ErrInvalidCode):
		return "invalid_code"
	case errorsx.Is(err, errorsx.ErrPasswordMismatch):
		return "password_mismatch"
	case errorsx.Is(err, errorsx.ErrResendLimitReached):
		return "resend_limit"
	}
	return "other"
}
