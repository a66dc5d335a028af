package config

type SMTPConfig interface {
	GetSmtpHost() string
	GetSmtpPort() int
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetSmtpFrom() string
}

type SMTP struct{}

var _ SMTPConfig = SMTP{}

func (SMTP) GetSmtpHost() string {
	return GetEnv("SMTP_HOST", "smtp.gmail.com")
}

func (SMTP) GetSmtpPort() int {
	return getEnvInt("SMTP_PORT", 587)
}

func (SMTP) GetSmtpAccount() string {
	return GetEnv("SMTP_ACCOUNT", "")
}

func (SMTP) GetSmtpPassword() string {
	return GetEnv("SMTP_PASSWORD", "")
}

func (SMTP) GetSmtpFrom() string {
	return GetEnv("SMTP_FROM", SMTP{}.GetSmtpAccount())
}
