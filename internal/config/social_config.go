package config

type SocialConfig interface {
	GetGoogleClientID() string
	GetAppleClientID() string
}

type Social struct{}

var _ SocialConfig = Social{}

// GetGoogleClientID returns the app's registered Google OAuth client ID,
// used as the expected audience of Google identity tokens.
func (Social) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

// GetAppleClientID returns the app's Apple bundle identifier, used as the
// expected audience of Apple identity tokens.
func (Social) GetAppleClientID() string {
	return GetEnv("APPLE_CLIENT_ID", "")
}
