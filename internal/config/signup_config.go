package config

import (
	"strconv"
	"time"
)

type SignupConfig interface {
	GetOTPLength() int
	GetSessionTTL() time.Duration
	GetMaxAttempts() int
	GetMaxResends() int
	GetDebugCodes() bool
}

type Signup struct{}

var _ SignupConfig = Signup{}

func (Signup) GetOTPLength() int {
	return getEnvInt("OTP_LENGTH", 4)
}

func (Signup) GetSessionTTL() time.Duration {
	return time.Duration(getEnvInt("SIGNUP_TTL_MINUTES", 10)) * time.Minute
}

func (Signup) GetMaxAttempts() int {
	return getEnvInt("SIGNUP_MAX_ATTEMPTS", 5)
}

func (Signup) GetMaxResends() int {
	return getEnvInt("SIGNUP_MAX_RESENDS", 3)
}

// GetDebugCodes reports whether plaintext one-time codes may be logged.
// Never enabled outside DEV.
func (s Signup) GetDebugCodes() bool {
	return GetEnv("DEBUG_OTP", "") == "true" && EnvVars{}.GetEnv() == "DEV"
}

func getEnvInt(envVar string, defaultValue int) int {
	v := GetEnv(envVar, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
