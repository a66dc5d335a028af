package idtoken

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/jwks"
	"github.com/grubsnap/identity/secrets"
)

// DefaultLeeway is the clock-skew allowance for expiry and issued-at checks.
const DefaultLeeway = 300 * time.Second

// IdentityClaims is the validated output of token verification. It is
// transient: consumed immediately by the social login flow, never persisted.
type IdentityClaims struct {
	Provider      string
	Issuer        string
	Subject       string
	Audience      []string
	Email         string
	EmailVerified bool
	Nonce         string
	ExpiresAt     time.Time
	IssuedAt      time.Time
}

// flexBool tolerates providers that encode boolean claims as strings
// ("true"/"false"), which Apple does for email_verified.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case string:
		*b = t == "true"
	default:
		*b = false
	}
	return nil
}

// tokenClaims is the raw claim set decoded from a provider token. The
// email_verified pointer distinguishes an absent signal from an explicit
// "unverified": only the explicit negative makes the email untrustworthy.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email         string    `json:"email,omitempty"`
	EmailVerified *flexBool `json:"email_verified,omitempty"`
	Nonce         string    `json:"nonce,omitempty"`
}

// Verifier validates provider identity tokens: signature against the JWKS
// cache, then issuer, audience, freshness, and optional nonce. Signature
// verification always precedes trusting any claim.
type Verifier struct {
	cache     *jwks.Cache
	providers map[string]Provider
	leeway    time.Duration
	nowTime   func() time.Time // nowTime function (injectable for testing)
}

// VerifierOption defines a function type to modify the Verifier instance.
type VerifierOption func(*Verifier)

// WithLeeway overrides the clock-skew allowance.
func WithLeeway(leeway time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.leeway = leeway
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.nowTime = nowFunc
	}
}

// NewVerifier creates a Verifier over a key cache and a fixed provider set.
func NewVerifier(cache *jwks.Cache, providers []Provider, options ...VerifierOption) *Verifier {
	pm := make(map[string]Provider, len(providers))
	for _, p := range providers {
		pm[p.Name] = p
	}

	verifier := &Verifier{
		cache:     cache,
		providers: pm,
		leeway:    DefaultLeeway,
		nowTime:   time.Now,
	}

	for _, opt := range options {
		opt(verifier)
	}

	return verifier
}

// Verify validates rawToken for the named provider. expectedNonce may be
// empty, in which case the nonce claim is not checked.
func (v *Verifier) Verify(ctx context.Context, provider, rawToken, expectedAudience, expectedNonce string) (*IdentityClaims, error) {
	p, ok := v.providers[provider]
	if !ok {
		return nil, errorsx.Wrapf(errorsx.ErrUnknownProvider, "provider %q", provider)
	}

	// The header is parsed only to obtain the key id; no payload claim is
	// trusted until the signature has been checked against that key.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &tokenClaims{}
	_, err := parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errorsx.Wrapf(errorsx.ErrUnknownSigningKey, "token header has no kid")
		}
		return v.cache.Key(ctx, p.Name, kid)
	})
	if err != nil {
		return nil, mapSignatureError(err)
	}

	if claims.Subject == "" {
		return nil, errorsx.Wrapf(errorsx.ErrBadSignature, "token has no subject")
	}

	// Issuer is matched against the provider's fixed set, never inferred
	// from the token.
	if !containsString(p.Issuers, claims.Issuer) {
		return nil, errorsx.Wrapf(errorsx.ErrInvalidIssuer, "issuer %q", claims.Issuer)
	}

	if !containsString(claims.Audience, expectedAudience) {
		return nil, errorsx.Wrapf(errorsx.ErrAudienceMismatch, "audience %v", []string(claims.Audience))
	}

	now := v.nowTime()
	if claims.ExpiresAt == nil || now.After(claims.ExpiresAt.Time.Add(v.leeway)) {
		return nil, errorsx.ErrTokenExpired
	}
	if claims.IssuedAt == nil || claims.IssuedAt.Time.After(now.Add(v.leeway)) {
		return nil, errorsx.ErrTokenNotYetValid
	}
	if claims.NotBefore != nil && claims.NotBefore.Time.After(now.Add(v.leeway)) {
		return nil, errorsx.ErrTokenNotYetValid
	}

	if expectedNonce != "" {
		if !nonceMatches(claims.Nonce, expectedNonce) {
			return nil, errorsx.ErrNonceMismatch
		}
	}

	return &IdentityClaims{
		Provider:      p.Name,
		Issuer:        claims.Issuer,
		Subject:       claims.Subject,
		Audience:      claims.Audience,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified == nil || bool(*claims.EmailVerified),
		Nonce:         claims.Nonce,
		ExpiresAt:     claims.ExpiresAt.Time,
		IssuedAt:      claims.IssuedAt.Time,
	}, nil
}

// Provider returns a provider description by name.
func (v *Verifier) Provider(name string) (Provider, bool) {
	p, ok := v.providers[name]
	return p, ok
}

// nonceMatches compares the token's nonce claim against the caller-supplied
// raw nonce. Providers are inconsistent about the digest encoding, so the
// SHA-256 of the raw nonce is accepted as hex, as URL-safe base64 without
// padding, and verbatim for providers that echo the nonce unhashed.
func nonceMatches(tokenNonce, expectedNonce string) bool {
	if tokenNonce == "" {
		return false
	}
	sum := sha256.Sum256([]byte(expectedNonce))
	if secrets.Compare(tokenNonce, hex.EncodeToString(sum[:])) {
		return true
	}
	if secrets.Compare(tokenNonce, base64.RawURLEncoding.EncodeToString(sum[:])) {
		return true
	}
	return secrets.Compare(tokenNonce, expectedNonce)
}

// mapSignatureError folds jwt parse failures into the error taxonomy,
// keeping infrastructure failures distinct from forged-credential signals.
func mapSignatureError(err error) error {
	switch {
	case errorsx.Is(err, errorsx.ErrKeySourceUnavailable),
		errorsx.Is(err, errorsx.ErrUnknownSigningKey),
		errorsx.Is(err, errorsx.ErrUnknownProvider):
		return err
	case errorsx.Is(err, jwt.ErrTokenSignatureInvalid):
		return errorsx.Wrapf(errorsx.ErrBadSignature, "%v", err)
	default:
		// Malformed tokens, wrong algorithm, undecodable claims.
		return errorsx.Wrapf(errorsx.ErrBadSignature, "parsing token: %v", err)
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
