package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Provider identifies which external identity provider an account was
// created or linked through. Empty for password accounts.
type Provider string

const (
	ProviderNone   Provider = ""
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

// Account is the minimal permanent record the credential-issuance core
// touches. Email is the sole natural key.
type Account struct {
	ID           string    `json:"id,omitempty"`    // Unique identifier for the account
	Email        string    `json:"email,omitempty"` // Normalized email address, unique
	PasswordHash string    `json:"-"`               // bcrypt hash - never serialize; empty for social-only accounts
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`

	// Set unconditionally by social login, never by the OTP signup flow.
	Provider        Provider `json:"provider,omitempty"`
	ProviderSubject string   `json:"provider_subject,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// SocialOnly reports whether the account has no usable password.
func (a *Account) SocialOnly() bool {
	return a.PasswordHash == ""
}

// HashPassword hashes a plaintext password for at-rest storage.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash checks a plaintext password against a stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
