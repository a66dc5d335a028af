// Package server exposes the credential-issuance core over HTTP for the
// mobile clients: OTP signup (start/verify/resend), Google/Apple login, the
// published JWKS, and operational endpoints.
package server

import (
	"net/http"

	"github.com/grubsnap/identity/internal/config"
	"github.com/grubsnap/identity/signup"
	"github.com/grubsnap/identity/social"
	"github.com/grubsnap/identity/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Services bundles the core services the HTTP layer fronts.
type Services struct {
	Signup *signup.Service
	Social *social.Service
	Issuer *token.Issuer
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	svc    Services
	log    zerolog.Logger
}

func New(cfg config.Config, svc Services, log zerolog.Logger) (*Server, error) {
	if svc.Signup == nil {
		return nil, errors.New("[Server New] signup service is required")
	}
	if svc.Social == nil {
		return nil, errors.New("[Server New] social service is required")
	}
	if svc.Issuer == nil {
		return nil, errors.New("[Server New] token issuer is required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		svc:    svc,
		log:    log,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.log.Debug().Str("route", route).Msg("registered")
	}
}
