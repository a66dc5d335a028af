// Package social turns a verified third-party identity token into a
// permanent account: find by verified email or create, with stable
// placeholder addresses when the provider withholds the email.
package social

import (
	"context"
	"fmt"
	"strings"

	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/idtoken"
	"github.com/grubsnap/identity/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// placeholderDomain hosts the deterministic addresses derived for subjects
// whose provider omitted the email claim. The reserved .invalid TLD
// guarantees these can never collide with a real mailbox.
const placeholderDomain = "placeholder.invalid"

// TokenVerifier is satisfied by idtoken.Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, provider, rawToken, expectedAudience, expectedNonce string) (*idtoken.IdentityClaims, error)
}

// Service composes the token verifier with the User Store.
type Service struct {
	verifier  TokenVerifier
	userRepo  users.Repo
	audiences map[string]string // provider -> registered client ID
	log       zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a Service. audiences maps each enabled provider to the
// app's registered client identifier with that provider.
func NewService(verifier TokenVerifier, userRepo users.Repo, audiences map[string]string, options ...ServiceOption) (*Service, error) {
	if verifier == nil {
		return nil, errors.New("[NewService] verifier is required")
	}
	if userRepo == nil {
		return nil, errors.New("[NewService] userRepo is required")
	}

	auds := make(map[string]string, len(audiences))
	for p, a := range audiences {
		auds[p] = a
	}

	service := &Service{
		verifier:  verifier,
		userRepo:  userRepo,
		audiences: auds,
		log:       zerolog.Nop(),
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Login verifies a provider identity token and resolves it to an account,
// creating one on first sight. Returns the account and whether it was newly
// created.
func (s *Service) Login(ctx context.Context, provider, rawToken, nonce string) (*users.Account, bool, error) {
	audience, ok := s.audiences[provider]
	if !ok || audience == "" {
		return nil, false, errorsx.Wrapf(errorsx.ErrUnknownProvider, "provider %q not enabled", provider)
	}

	claims, err := s.verifier.Verify(ctx, provider, rawToken, audience, nonce)
	if err != nil {
		return nil, false, errors.Wrapf(err, "[Service.Login] verify %s token", provider)
	}

	// An email claim the provider marks unverified is treated as absent:
	// linking accounts on an unproven address would let an attacker claim
	// someone else's account.
	email := signupEmail(claims)

	account, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if updated := linkProvider(account, provider, claims.Subject); updated {
			if err := s.userRepo.Update(ctx, account); err != nil {
				return nil, false, errors.Wrap(err, "[Service.Login] users.Update")
			}
		}
		return account, false, nil
	case errorsx.Is(err, errorsx.ErrNotFound):
		// fall through to create
	default:
		return nil, false, errors.Wrap(err, "[Service.Login] users.FindByEmail")
	}

	account, err = s.userRepo.Create(ctx, &users.Account{
		Email:           email,
		Provider:        users.Provider(provider),
		ProviderSubject: claims.Subject,
	})
	if err != nil {
		if errorsx.Is(err, errorsx.ErrAlreadyRegistered) {
			// Lost a create race; the other writer's account wins.
			account, ferr := s.userRepo.FindByEmail(ctx, email)
			if ferr != nil {
				return nil, false, errors.Wrap(ferr, "[Service.Login] users.FindByEmail after race")
			}
			return account, false, nil
		}
		return nil, false, errors.Wrap(err, "[Service.Login] users.Create")
	}

	s.log.Info().Str("provider", provider).Str("email", email).Msg("account created from social login")
	return account, true, nil
}

// signupEmail picks the address an external identity resolves to: the
// verified email claim when present, else a deterministic placeholder keyed
// by provider and subject so repeat logins hit the same account and subjects
// never collide across providers.
func signupEmail(claims *idtoken.IdentityClaims) string {
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email != "" && !claims.EmailVerified {
		email = ""
	}
	if email == "" {
		return fmt.Sprintf("%s_%s@%s", claims.Provider, claims.Subject, placeholderDomain)
	}
	return email
}

// linkProvider records provider bookkeeping on an account, reporting whether
// anything changed.
func linkProvider(account *users.Account, provider, subject string) bool {
	updated := false
	if account.Provider != users.Provider(provider) {
		account.Provider = users.Provider(provider)
		updated = true
	}
	if account.ProviderSubject != subject {
		account.ProviderSubject = subject
		updated = true
	}
	return updated
}
