package server

import "net/http"

// HealthzHandler answers liveness probes.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// JWKSHandler publishes the issuer's key set so resource servers can verify
// minted credentials.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := s.svc.Issuer.JWKS()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		s.writeJSON(w, http.StatusOK, set)
	}
}
