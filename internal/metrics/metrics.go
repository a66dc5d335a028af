package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Credential-issuance Prometheus metrics. Defined in a standalone package so
// both the HTTP layer and the services can record without import cycles.

var (
	SignupStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signup_sessions_started_total",
		Help: "Signup sessions opened",
	})

	SignupVerified = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signup_sessions_verified_total",
		Help: "Signup sessions that materialized an account",
	})

	SignupFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signup_failures_total",
		Help: "Signup operations rejected, by reason",
	}, []string{"reason"})

	SocialLogins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_logins_total",
		Help: "Successful social logins, by provider",
	}, []string{"provider"})

	SecurityRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "token_security_rejections_total",
		Help: "Identity tokens rejected for security reasons, by reason",
	}, []string{"reason"})
)

// Register registers all service metrics on the given registry (or the
// default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		SignupStarted,
		SignupVerified,
		SignupFailures,
		SocialLogins,
		SecurityRejections,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
