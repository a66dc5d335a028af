// Package token is the credential-issuer collaborator: once a signup or
// social login has proven an identity, it mints the RS256 access/refresh
// pair the mobile client authenticates with afterwards.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/grubsnap/identity/token/keys"
	"github.com/grubsnap/identity/users"
	"github.com/pkg/errors"
)

// Token lifetimes.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Pair is a minted access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Issuer mints JWT credential pairs for resolved accounts.
type Issuer struct {
	keyPair    *keys.KeyPair
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// WithTTLs overrides the access and refresh lifetimes.
func WithTTLs(access, refresh time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTTL = access
		i.refreshTTL = refresh
	}
}

// NewIssuer creates an Issuer signing with the given key pair under the
// given issuer string.
func NewIssuer(keyPair *keys.KeyPair, issuer string, options ...IssuerOption) (*Issuer, error) {
	if keyPair == nil {
		return nil, errors.New("[NewIssuer] keyPair is required")
	}
	if issuer == "" {
		return nil, errors.New("[NewIssuer] issuer is required")
	}

	iss := &Issuer{
		keyPair:    keyPair,
		issuer:     issuer,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		nowTime:    time.Now,
	}

	for _, opt := range options {
		opt(iss)
	}

	return iss, nil
}

// Issue mints an access/refresh pair for an account.
func (i *Issuer) Issue(account *users.Account) (*Pair, error) {
	now := i.nowTime()

	access, err := i.sign(account, "access", now, i.accessTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] signing access token")
	}
	refresh, err := i.sign(account, "refresh", now, i.refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] signing refresh token")
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

// JWKS returns the published key set clients use to verify issued tokens.
func (i *Issuer) JWKS() (*keys.JWKS, error) {
	jwk, err := i.keyPair.ToJWK()
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.JWKS] ToJWK")
	}
	return &keys.JWKS{Keys: []keys.JWK{*jwk}}, nil
}

func (i *Issuer) sign(account *users.Account, use string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"iss":   i.issuer,
		"sub":   account.ID,
		"email": account.Email,
		"use":   use,
		"jti":   uuid.New().String(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(i.keyPair.GetSigningMethod(), claims)
	t.Header["kid"] = i.keyPair.KeyID

	signed, err := t.SignedString(i.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "SignedString")
	}
	return signed, nil
}
