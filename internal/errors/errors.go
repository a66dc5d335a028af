package errors

import (
	"errors"
	"fmt"
)

// Common error types for the identity service
var (
	// Signup session errors
	ErrAlreadyRegistered  = errors.New("account with this email already exists")
	ErrSessionNotFound    = errors.New("signup session not found")
	ErrSessionExpired     = errors.New("signup session expired")
	ErrTooManyAttempts    = errors.New("too many verification attempts")
	ErrInvalidCode        = errors.New("invalid one-time code")
	ErrPasswordMismatch   = errors.New("password does not match initial step")
	ErrResendLimitReached = errors.New("resend limit reached")

	// Identity token errors
	ErrUnknownSigningKey = errors.New("unknown signing key")
	ErrBadSignature      = errors.New("invalid token signature")
	ErrInvalidIssuer     = errors.New("invalid token issuer")
	ErrAudienceMismatch  = errors.New("token audience mismatch")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenNotYetValid  = errors.New("token not yet valid")
	ErrNonceMismatch     = errors.New("token nonce mismatch")
	ErrUnknownProvider   = errors.New("unknown identity provider")

	// Infrastructure errors
	ErrKeySourceUnavailable = errors.New("identity provider key source unavailable")
	ErrStoreUnavailable     = errors.New("store unavailable")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Kind partitions failures the way callers must treat them: client errors map
// to ordinary request rejections, security errors indicate a possible attack
// and are logged distinctly, infrastructure errors are retryable outages that
// must never be reported as an invalid credential.
type Kind int

const (
	KindUnknown Kind = iota
	KindClient
	KindSecurity
	KindInfrastructure
)

// KindOf classifies an error chain into a Kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrTooManyAttempts),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrResendLimitReached),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenNotYetValid),
		errors.Is(err, ErrUnknownProvider):
		return KindClient
	case errors.Is(err, ErrUnknownSigningKey),
		errors.Is(err, ErrBadSignature),
		errors.Is(err, ErrInvalidIssuer),
		errors.Is(err, ErrAudienceMismatch),
		errors.Is(err, ErrNonceMismatch):
		return KindSecurity
	case errors.Is(err, ErrKeySourceUnavailable),
		errors.Is(err, ErrStoreUnavailable):
		return KindInfrastructure
	}
	return KindUnknown
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
