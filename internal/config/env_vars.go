package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	tokenIssVar   = "TOKEN_ISSUER"
	signingKeyVar = "SIGNING_KEY_PEM"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Identity Service")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetTokenIssuer returns the issuer string stamped into minted credentials.
func (EnvVars) GetTokenIssuer() string {
	return GetEnv(tokenIssVar, "http://localhost:8080")
}

// GetSigningKeyPEM returns the PEM-encoded RSA private key for the
// credential issuer. Empty means generate an ephemeral key at startup.
func (EnvVars) GetSigningKeyPEM() string {
	return GetEnv(signingKeyVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
