package signup

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/notify"
	"github.com/grubsnap/identity/secrets"
	"github.com/grubsnap/identity/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Defaults for the signup session protocol.
const (
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 5
	DefaultMaxResends  = 3
	DefaultLocale      = "en"
)

// Config tunes the signup session protocol.
type Config struct {
	CodeLength  int           // Decimal digits per one-time code
	TTL         time.Duration // Absolute session lifetime
	MaxAttempts int           // Verification tries before the session dies
	MaxResends  int           // Code re-issuances per session
	DebugCodes  bool          // Log plaintext codes - test/dev environments only
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CodeLength:  secrets.DefaultCodeLength,
		TTL:         DefaultTTL,
		MaxAttempts: DefaultMaxAttempts,
		MaxResends:  DefaultMaxResends,
	}
}

// Repos holds the repository dependencies for the Service.
type Repos struct {
	Sessions SessionRepo // Pending signup sessions
	Users    users.Repo  // Permanent account store (external collaborator)
}

// Service drives the start/verify/resend signup protocol over an ephemeral
// session store, the Notifier, and the User Store.
type Service struct {
	repos    Repos
	notifier notify.Sender
	cfg      Config
	log      zerolog.Logger
	nowTime  func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a Service with required dependencies.
func NewService(repos Repos, notifier notify.Sender, cfg Config, options ...ServiceOption) (*Service, error) {
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if notifier == nil {
		return nil, errors.New("[NewService] notifier is required")
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = secrets.DefaultCodeLength
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxResends <= 0 {
		cfg.MaxResends = DefaultMaxResends
	}

	service := &Service{
		repos:    repos,
		notifier: notifier,
		cfg:      cfg,
		log:      zerolog.Nop(),
		nowTime:  time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// StartResult is the outcome of Start. Code is the plaintext one-time code,
// returned once so the caller can hand it to the Notifier; it is never
// persisted.
type StartResult struct {
	Session   *Session
	Code      string
	EmailSent bool
}

// NormalizeEmail lower-cases and trims a candidate address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Start opens a signup session for an email/password pair and dispatches the
// one-time code. The existence check against the User Store is advisory; the
// authoritative check happens at materialization time in Verify.
func (s *Service) Start(ctx context.Context, email, password, locale string) (*StartResult, error) {
	email = NormalizeEmail(email)
	if locale == "" {
		locale = DefaultLocale
	}
	if len(locale) > 8 {
		locale = locale[:8]
	}

	exists, err := s.repos.Users.Exists(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Start] users.Exists")
	}
	if exists {
		return nil, errorsx.ErrAlreadyRegistered
	}

	code, err := secrets.NewCode(s.cfg.CodeLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Start] secrets.NewCode")
	}
	salt, err := secrets.NewSalt()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Start] secrets.NewSalt")
	}

	now := s.nowTime()
	session := &Session{
		ID:             uuid.New().String(),
		Email:          email,
		PasswordDigest: secrets.Digest(password, ""),
		OTPDigest:      secrets.Digest(code, salt),
		OTPSalt:        salt,
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.cfg.TTL),
		Locale:         locale,
	}

	if err := s.repos.Sessions.Put(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Service.Start] sessions.Put")
	}

	emailSent := s.sendCode(ctx, email, code, s.cfg.TTL, locale)

	if s.cfg.DebugCodes {
		s.log.Debug().Str("email", email).Str("otp", code).Msg("signup code issued")
	}

	return &StartResult{Session: session, Code: code, EmailSent: emailSent}, nil
}

// Verify checks a one-time code and the original password against a session
// and, on success, consumes the session and materializes the account. The
// session is consumed even when the final create loses an email race:
// retrying with the same session would otherwise be a replay.
func (s *Service) Verify(ctx context.Context, sessionID, code, password string) (*users.Account, error) {
	now := s.nowTime()

	session, err := s.repos.Sessions.Update(ctx, sessionID, func(sess *Session) error {
		if sess.ExpiredAt(now) {
			return errorsx.ErrSessionExpired
		}
		// Cap is checked before the increment so a dead session never
		// reports InvalidCode.
		if sess.Attempts >= s.cfg.MaxAttempts {
			return errorsx.ErrTooManyAttempts
		}
		// Every call counts, success included.
		sess.Attempts++
		return nil
	})
	if err != nil {
		if errorsx.Is(err, errorsx.ErrSessionExpired) || errorsx.Is(err, errorsx.ErrTooManyAttempts) {
			_ = s.repos.Sessions.Delete(ctx, sessionID)
		}
		return nil, err
	}

	if !secrets.Compare(secrets.Digest(code, session.OTPSalt), session.OTPDigest) {
		return nil, errorsx.ErrInvalidCode
	}
	// A stolen session id plus a guessed code is not enough without the
	// password captured at start.
	if !secrets.Compare(secrets.Digest(password, ""), session.PasswordDigest) {
		return nil, errorsx.ErrPasswordMismatch
	}

	// Single atomic handoff: the session is consumed before materialization
	// so it can never be replayed, even if the create below loses a race.
	if err := s.repos.Sessions.Delete(ctx, sessionID); err != nil {
		return nil, errors.Wrap(err, "[Service.Verify] sessions.Delete")
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Verify] users.HashPassword")
	}

	account, err := s.repos.Users.Create(ctx, &users.Account{
		Email:        session.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	})
	if err != nil {
		if errorsx.Is(err, errorsx.ErrAlreadyRegistered) {
			return nil, errorsx.ErrAlreadyRegistered
		}
		return nil, errors.Wrap(err, "[Service.Verify] users.Create")
	}

	return account, nil
}

// ResendResult is the outcome of Resend.
type ResendResult struct {
	Code        string
	TTLLeft     time.Duration
	ResendsUsed int
	ResendsLeft int
	EmailSent   bool
}

// Resend regenerates the one-time code for a live session. The old code stops
// validating immediately; attempts are never reset by a resend, and the
// session's absolute expiry is never extended.
func (s *Service) Resend(ctx context.Context, sessionID string) (*ResendResult, error) {
	now := s.nowTime()

	code, err := secrets.NewCode(s.cfg.CodeLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Resend] secrets.NewCode")
	}
	salt, err := secrets.NewSalt()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Resend] secrets.NewSalt")
	}

	session, err := s.repos.Sessions.Update(ctx, sessionID, func(sess *Session) error {
		if sess.ExpiredAt(now) {
			return errorsx.ErrSessionExpired
		}
		if sess.Resends >= s.cfg.MaxResends {
			return errorsx.ErrResendLimitReached
		}
		// Salt and digest are replaced together; a cancelled caller can
		// never observe a half-rotated code.
		sess.OTPSalt = salt
		sess.OTPDigest = secrets.Digest(code, salt)
		sess.IssuedAt = now
		sess.Resends++
		return nil
	})
	if err != nil {
		if errorsx.Is(err, errorsx.ErrSessionExpired) {
			_ = s.repos.Sessions.Delete(ctx, sessionID)
		}
		return nil, err
	}

	ttlLeft := session.ExpiresAt.Sub(now)
	emailSent := s.sendCode(ctx, session.Email, code, ttlLeft, session.Locale)

	if s.cfg.DebugCodes {
		s.log.Debug().Str("email", session.Email).Str("otp", code).Msg("signup code reissued")
	}

	return &ResendResult{
		Code:        code,
		TTLLeft:     ttlLeft,
		ResendsUsed: session.Resends,
		ResendsLeft: s.cfg.MaxResends - session.Resends,
		EmailSent:   emailSent,
	}, nil
}

// sendCode dispatches the code fire-and-forget: delivery failure is logged
// and never rolls back session state - an undelivered code is resendable.
func (s *Service) sendCode(ctx context.Context, email, code string, ttl time.Duration, locale string) bool {
	if err := s.notifier.SendCode(ctx, email, code, ttl, locale); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("signup code delivery failed")
		return false
	}
	return true
}
