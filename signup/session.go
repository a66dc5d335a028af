// Package signup owns the lifecycle of a pending, OTP-gated signup: an
// ephemeral session is created at start, mutated by resend and verify, and
// destroyed on success, expiry, or cap exhaustion.
package signup

import "time"

// Session is one in-progress signup attempt, keyed by an opaque random
// identifier that acts as the bearer capability for subsequent calls. The
// identifier is never derived from the email.
type Session struct {
	ID             string    // Canonical UUID string of a 128-bit random identifier
	Email          string    // Normalized (lower-cased, trimmed) candidate address
	PasswordDigest string    // Digest of the candidate password; detects tampering between start and verify
	OTPDigest      string    // Salted digest of the currently valid code; the plaintext is never persisted
	OTPSalt        string    // Per-code salt, replaced together with OTPDigest on resend
	IssuedAt       time.Time // When the current code was issued; bumped on resend
	ExpiresAt      time.Time // Absolute session expiry; fixed at start, never extended
	Attempts       int       // Failed-or-successful verification tries; capped
	Resends        int       // Code re-issuances; capped
	Locale         string    // Caller-preferred locale for the notification template
}

// ExpiredAt reports whether the session has crossed its absolute expiry.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
