package server

import (
	"net/http"

	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/internal/metrics"
)

// SocialLoginHandler verifies a provider identity token and answers with a
// credential pair for the resolved account.
func (s *Server) SocialLoginHandler(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SocialLoginRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
			return
		}

		account, isNew, err := s.svc.Social.Login(r.Context(), provider, req.IDToken, req.Nonce)
		if err != nil {
			if errorsx.KindOf(err) == errorsx.KindSecurity {
				metrics.SecurityRejections.WithLabelValues(securityReason(err)).Inc()
			}
			s.writeError(w, r, err)
			return
		}

		pair, err := s.svc.Issuer.Issue(account)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		metrics.SocialLogins.WithLabelValues(provider).Inc()
		s.writeJSON(w, http.StatusOK, SocialLoginResponse{
			Access:    pair.AccessToken,
			Refresh:   pair.RefreshToken,
			User:      AccountOut{ID: account.ID, Email: account.Email},
			IsNewUser: isNew,
		})
	}
}

// securityReason buckets token rejections for the security counter.
func securityReason(err error) string {
	switch {
	case errorsx.Is(err, errorsx.ErrBadSignature):
		return "bad_signature"
	case errorsx.Is(err, errorsx.ErrInvalidIssuer):
		return "invalid_issuer"
	case errorsx.Is(err, errorsx.ErrAudienceMismatch):
		return "audience_mismatch"
	case errorsx.Is(err, errorsx.ErrNonceMismatch):
		return "nonce_mismatch"
	case errorsx.Is(err, errorsx.ErrUnknownSigningKey):
		return "unknown_key"
	}
	return "other"
}
