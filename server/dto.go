package server

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// StartSignupRequest opens a signup session.
type StartSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Locale   string `json:"locale,omitempty"`
}

func (r StartSignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(&r.Locale, validation.Length(0, 8)),
	)
}

// StartSignupResponse mirrors the original mobile API contract.
type StartSignupResponse struct {
	SessionID  string `json:"session_id"`
	Email      string `json:"email"`
	EmailSent  bool   `json:"email_sent"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// VerifySignupRequest completes a signup session.
type VerifySignupRequest struct {
	SessionID string `json:"session_id"`
	OTP       string `json:"otp"`
	Password  string `json:"password"`
}

func (r VerifySignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SessionID, validation.Required, is.UUID),
		validation.Field(&r.OTP, validation.Required, is.Digit, validation.Length(4, 8)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
	)
}

// VerifySignupResponse returns the minted credentials for the new account.
type VerifySignupResponse struct {
	Access  string     `json:"access"`
	Refresh string     `json:"refresh"`
	User    AccountOut `json:"user"`
}

// AccountOut is the public shape of an account.
type AccountOut struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ResendSignupRequest re-issues a session's one-time code.
type ResendSignupRequest struct {
	SessionID string `json:"session_id"`
}

func (r ResendSignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SessionID, validation.Required, is.UUID),
	)
}

// ResendSignupResponse mirrors the original mobile API contract.
type ResendSignupResponse struct {
	OK             bool  `json:"ok"`
	TTLSecondsLeft int64 `json:"ttl_seconds_left"`
	ResendsUsed    int   `json:"resends_used"`
	ResendsLeft    int   `json:"resends_left"`
}

// SocialLoginRequest carries a provider identity token from the native SDK.
type SocialLoginRequest struct {
	IDToken string `json:"id_token"`
	Nonce   string `json:"nonce,omitempty"`
}

func (r SocialLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDToken, validation.Required),
	)
}

// SocialLoginResponse returns the minted credentials.
type SocialLoginResponse struct {
	Access    string     `json:"access"`
	Refresh   string     `json:"refresh"`
	User      AccountOut `json:"user"`
	IsNewUser bool       `json:"is_new_user"`
}
