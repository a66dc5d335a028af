package token_test

import (
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/grubsnap/identity/token"
	"github.com/grubsnap/identity/token/keys"
	"github.com/grubsnap/identity/users"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer    = "https://identity.example.com"
	testKeyID     = "primary"
	testAccountID = "account-1"
	testEmail     = "jane.doe@example.com"
)

func setupIssuer(t *testing.T, options ...token.IssuerOption) (*token.Issuer, *keys.KeyPair) {
	t.Helper()

	keyPair, err := keys.GenerateRSAKeyPair(testKeyID, 2048)
	require.NoError(t, err)

	issuer, err := token.NewIssuer(keyPair, testIssuer, options...)
	require.NoError(t, err)
	return issuer, keyPair
}

func testAccount() *users.Account {
	return &users.Account{ID: testAccountID, Email: testEmail}
}

// parseIssued decodes one of the minted tokens against the issuer's own key.
func parseIssued(t *testing.T, keyPair *keys.KeyPair, raw string, opts ...jwt.ParserOption) (jwt.MapClaims, *jwt.Token) {
	t.Helper()

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		return keyPair.PublicKey.(*rsa.PublicKey), nil
	}, append([]jwt.ParserOption{jwt.WithValidMethods([]string{keys.RS256})}, opts...)...)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return claims, parsed
}

func TestIssue_MintsValidPair(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	issuer, keyPair := setupIssuer(t, token.WithNowTime(func() time.Time { return now }))

	pair, err := issuer.Issue(testAccount())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, int64(token.DefaultAccessTTL.Seconds()), pair.ExpiresIn)

	access, parsed := parseIssued(t, keyPair, pair.AccessToken, jwt.WithTimeFunc(func() time.Time { return now }))
	require.Equal(t, testKeyID, parsed.Header["kid"])
	require.Equal(t, testIssuer, access["iss"])
	require.Equal(t, testAccountID, access["sub"])
	require.Equal(t, testEmail, access["email"])
	require.Equal(t, "access", access["use"])
	require.NotEmpty(t, access["jti"])
	require.Equal(t, float64(now.Add(token.DefaultAccessTTL).Unix()), access["exp"])

	refresh, _ := parseIssued(t, keyPair, pair.RefreshToken, jwt.WithTimeFunc(func() time.Time { return now }))
	require.Equal(t, "refresh", refresh["use"])
	require.Equal(t, float64(now.Add(token.DefaultRefreshTTL).Unix()), refresh["exp"])
	require.NotEqual(t, access["jti"], refresh["jti"], "each token gets its own id")
}

func TestIssue_RespectsTTLOverrides(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	issuer, keyPair := setupIssuer(t,
		token.WithNowTime(func() time.Time { return now }),
		token.WithTTLs(15*time.Minute, 24*time.Hour),
	)

	pair, err := issuer.Issue(testAccount())
	require.NoError(t, err)
	require.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)

	access, _ := parseIssued(t, keyPair, pair.AccessToken, jwt.WithTimeFunc(func() time.Time { return now }))
	require.Equal(t, float64(now.Add(15*time.Minute).Unix()), access["exp"])
}

func TestNewIssuer_Validation(t *testing.T) {
	keyPair, err := keys.GenerateRSAKeyPair(testKeyID, 2048)
	require.NoError(t, err)

	_, err = token.NewIssuer(nil, testIssuer)
	require.Error(t, err)

	_, err = token.NewIssuer(keyPair, "")
	require.Error(t, err)
}

func TestJWKS_PublishesSigningKey(t *testing.T) {
	issuer, keyPair := setupIssuer(t)

	set, err := issuer.JWKS()
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)

	jwk := set.Keys[0]
	require.Equal(t, "RSA", jwk.Kty)
	require.Equal(t, "sig", jwk.Use)
	require.Equal(t, keyPair.KeyID, jwk.Kid)
	require.Equal(t, keys.RS256, jwk.Alg)
	require.NotEmpty(t, jwk.N)
	require.NotEmpty(t, jwk.E)
}

func TestKeyPair_PEMRoundTrip(t *testing.T) {
	keyPair, err := keys.GenerateRSAKeyPair(testKeyID, 2048)
	require.NoError(t, err)

	pemStr, err := keyPair.ExportPrivateKeyPEM()
	require.NoError(t, err)

	loaded, err := keys.LoadKeyPairFromPEM("loaded", pemStr)
	require.NoError(t, err)

	issuer, err := token.NewIssuer(loaded, testIssuer)
	require.NoError(t, err)

	pair, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	// Tokens signed with the reloaded key verify against the original.
	parseIssued(t, keyPair, pair.AccessToken)
}
