package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grubsnap/identity/idtoken"
	"github.com/grubsnap/identity/internal/config"
	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/notify/notifyfake"
	"github.com/grubsnap/identity/server"
	"github.com/grubsnap/identity/signup"
	"github.com/grubsnap/identity/signup/sessionrepo"
	"github.com/grubsnap/identity/social"
	"github.com/grubsnap/identity/token"
	"github.com/grubsnap/identity/token/keys"
	fakeuserrepo "github.com/grubsnap/identity/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "jane.doe@example.com"
	testPassword = "password123"
	testProvider = "google"
	testClientID = "client-id-1.apps.example.com"
)

// fakeVerifier returns canned claims or a canned error.
type fakeVerifier struct {
	claims *idtoken.IdentityClaims
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _, _, _, _ string) (*idtoken.IdentityClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

// testFixture holds the server and the collaborators tests poke at.
type testFixture struct {
	server   *server.Server
	userRepo *fakeuserrepo.FakeUserRepo
	sender   *notifyfake.FakeSender
	verifier *fakeVerifier
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		sender:   notifyfake.NewFakeSender(),
		verifier: &fakeVerifier{},
	}

	signupService, err := signup.NewService(
		signup.Repos{Sessions: sessionrepo.New(signup.DefaultTTL), Users: f.userRepo},
		f.sender,
		signup.DefaultConfig(),
	)
	require.NoError(t, err)

	socialService, err := social.NewService(f.verifier, f.userRepo, map[string]string{
		testProvider: testClientID,
	})
	require.NoError(t, err)

	keyPair, err := keys.GenerateRSAKeyPair("test-key", 2048)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(keyPair, "https://identity.example.com")
	require.NoError(t, err)

	srv, err := server.New(config.New(), server.Services{
		Signup: signupService,
		Social: socialService,
		Issuer: issuer,
	}, zerolog.Nop())
	require.NoError(t, err)

	f.server = srv
	return f
}

// do posts a JSON body and decodes the JSON response into out (when non-nil).
func (f *testFixture) do(t *testing.T, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func TestSignupFlow_EndToEnd(t *testing.T) {
	f := setupTestFixture(t)

	var started server.StartSignupResponse
	rec := f.do(t, http.MethodPost, "/api/auth/register/start", server.StartSignupRequest{
		Email:    testEmail,
		Password: testPassword,
	}, &started)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, started.EmailSent)
	require.Equal(t, testEmail, started.Email)
	require.Equal(t, int64(signup.DefaultTTL.Seconds()), started.TTLSeconds)

	// The code only travels by mail; the fixture sender captured it.
	code := f.sender.Last().Code
	require.NotEmpty(t, code)

	var verified server.VerifySignupResponse
	rec = f.do(t, http.MethodPost, "/api/auth/register/verify", server.VerifySignupRequest{
		SessionID: started.SessionID,
		OTP:       code,
		Password:  testPassword,
	}, &verified)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, verified.Access)
	require.NotEmpty(t, verified.Refresh)
	require.Equal(t, testEmail, verified.User.Email)
}

func TestStartSignup_ValidationFailure(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register/start", server.StartSignupRequest{
		Email:    "not-an-email",
		Password: testPassword,
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifySignup_UnknownSession(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register/verify", server.VerifySignupRequest{
		SessionID: "4f5c0a9e-0b1d-4f9e-8a3c-2d7b6e5f4a3b",
		OTP:       "1234",
		Password:  testPassword,
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifySignup_AttemptsCapReturns429(t *testing.T) {
	f := setupTestFixture(t)

	var started server.StartSignupResponse
	rec := f.do(t, http.MethodPost, "/api/auth/register/start", server.StartSignupRequest{
		Email:    testEmail,
		Password: testPassword,
	}, &started)
	require.Equal(t, http.StatusOK, rec.Code)

	code := f.sender.Last().Code
	wrongCode := "9999"
	if wrongCode == code {
		wrongCode = "0000"
	}

	for i := 0; i < signup.DefaultMaxAttempts; i++ {
		rec = f.do(t, http.MethodPost, "/api/auth/register/verify", server.VerifySignupRequest{
			SessionID: started.SessionID,
			OTP:       wrongCode,
			Password:  testPassword,
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/auth/register/verify", server.VerifySignupRequest{
		SessionID: started.SessionID,
		OTP:       code,
		Password:  testPassword,
	}, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestResendSignup_RotatesCode(t *testing.T) {
	f := setupTestFixture(t)

	var started server.StartSignupResponse
	rec := f.do(t, http.MethodPost, "/api/auth/register/start", server.StartSignupRequest{
		Email:    testEmail,
		Password: testPassword,
	}, &started)
	require.Equal(t, http.StatusOK, rec.Code)

	var resent server.ResendSignupResponse
	rec = f.do(t, http.MethodPost, "/api/auth/register/resend", server.ResendSignupRequest{
		SessionID: started.SessionID,
	}, &resent)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resent.OK)
	require.Equal(t, 1, resent.ResendsUsed)
	require.Equal(t, signup.DefaultMaxResends-1, resent.ResendsLeft)
	require.Len(t, f.sender.Sent(), 2)
}

func TestSocialLogin_Success(t *testing.T) {
	f := setupTestFixture(t)
	f.verifier.claims = &idtoken.IdentityClaims{
		Provider:      testProvider,
		Subject:       "108234567890",
		Email:         testEmail,
		EmailVerified: true,
		ExpiresAt:     time.Now().Add(time.Hour),
		IssuedAt:      time.Now(),
	}

	var resp server.SocialLoginResponse
	rec := f.do(t, http.MethodPost, "/api/auth/google", server.SocialLoginRequest{
		IDToken: "raw-identity-token",
	}, &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.IsNewUser)
	require.NotEmpty(t, resp.Access)
	require.Equal(t, testEmail, resp.User.Email)
}

func TestSocialLogin_BadSignatureReturns401(t *testing.T) {
	f := setupTestFixture(t)
	f.verifier.err = errorsx.ErrBadSignature

	rec := f.do(t, http.MethodPost, "/api/auth/google", server.SocialLoginRequest{
		IDToken: "forged-token",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSocialLogin_KeySourceOutageReturns503(t *testing.T) {
	f := setupTestFixture(t)
	f.verifier.err = errorsx.ErrKeySourceUnavailable

	rec := f.do(t, http.MethodPost, "/api/auth/google", server.SocialLoginRequest{
		IDToken: "whatever-token",
	}, nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJWKS_PublishesKeySet(t *testing.T) {
	f := setupTestFixture(t)

	var set keys.JWKS
	rec := f.do(t, http.MethodGet, "/.well-known/jwks.json", nil, &set)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, set.Keys, 1)
	require.Equal(t, "test-key", set.Keys[0].Kid)
}

func TestHealthz(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
}
