// Package idtoken validates third-party identity tokens (Google, Apple)
// against rotating provider key sets.
package idtoken

// Provider names understood by the verifier.
const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

// Provider is a fixed description of an identity provider. Issuer strings
// and JWKS endpoints are hardcoded per provider and never taken from a
// token, which closes off issuer-confusion attacks.
type Provider struct {
	Name         string
	Issuers      []string // Accepted exact issuer values
	JWKSEndpoint string
}

// DefaultProviders returns the production Google and Apple descriptions.
// Google has issued both issuer forms historically, so both are accepted.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:         ProviderGoogle,
			Issuers:      []string{"https://accounts.google.com", "accounts.google.com"},
			JWKSEndpoint: "https://www.googleapis.com/oauth2/v3/certs",
		},
		{
			Name:         ProviderApple,
			Issuers:      []string{"https://appleid.apple.com"},
			JWKSEndpoint: "https://appleid.apple.com/auth/keys",
		},
	}
}

// Endpoints maps provider names to their JWKS endpoints, in the shape
// jwks.NewCache expects.
func Endpoints(providers []Provider) map[string]string {
	out := make(map[string]string, len(providers))
	for _, p := range providers {
		out[p.Name] = p.JWKSEndpoint
	}
	return out
}
