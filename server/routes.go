package server

import "github.com/prometheus/client_golang/prometheus/promhttp"

// API routes. The register triplet mirrors the mobile app's signup screens;
// google/apple accept the ID tokens the native sign-in SDKs hand the app.
const (
	RouteRegisterStart  = "POST /api/auth/register/start"
	RouteRegisterVerify = "POST /api/auth/register/verify"
	RouteRegisterResend = "POST /api/auth/register/resend"
	RouteLoginGoogle    = "POST /api/auth/google"
	RouteLoginApple     = "POST /api/auth/apple"
	RouteJWKS           = "GET /.well-known/jwks.json"
	RouteHealthz        = "GET /healthz"
	RouteMetrics        = "GET /metrics"
)

func (s *Server) initRoutes() {
	api := s.APIMiddleware()

	s.RegisterRouteFunc(RouteRegisterStart, ChainMiddleware(s.StartSignupHandler(), api...))
	s.RegisterRouteFunc(RouteRegisterVerify, ChainMiddleware(s.VerifySignupHandler(), api...))
	s.RegisterRouteFunc(RouteRegisterResend, ChainMiddleware(s.ResendSignupHandler(), api...))
	s.RegisterRouteFunc(RouteLoginGoogle, ChainMiddleware(s.SocialLoginHandler("google"), api...))
	s.RegisterRouteFunc(RouteLoginApple, ChainMiddleware(s.SocialLoginHandler("apple"), api...))

	s.RegisterRouteFunc(RouteJWKS, s.JWKSHandler())
	s.RegisterRouteFunc(RouteHealthz, s.HealthzHandler())
	s.RegisterRouteHandler(RouteMetrics, promhttp.Handler())
}
