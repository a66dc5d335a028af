package config

type Config interface {
	EnvConfig
	SignupConfig
	SocialConfig
	SMTPConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetTokenIssuer() string
	GetSigningKeyPEM() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Signup
	Social
	SMTP
	Cors
}

func New() Config {
	return mainConfig{}
}
