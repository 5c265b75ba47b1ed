package config

import (
	"os"
	"strconv"
	"time"
)

// ProviderConfig contains the telephony provider REST configuration used by
// the dispatch boundary.
type ProviderConfig struct {
	BaseURL        string        `json:"base_url"`
	AccountSID     string        `json:"account_sid"`
	AuthToken      string        `json:"-"`
	FromNumber     string        `json:"from_number"`
	VoiceURL       string        `json:"voice_url"`
	StatusCallback string        `json:"status_callback"`
	EnqueueTimeout time.Duration `json:"enqueue_timeout"`
}

// GetProviderConfig returns the provider configuration from the environment
func GetProviderConfig() *ProviderConfig {
	timeoutSeconds := 30
	if raw := os.Getenv("PROVIDER_ENQUEUE_TIMEOUT_SECONDS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeoutSeconds = parsed
		}
	}

	baseURL := os.Getenv("PROVIDER_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}

	return &ProviderConfig{
		BaseURL:        baseURL,
		AccountSID:     os.Getenv("PROVIDER_ACCOUNT_SID"),
		AuthToken:      os.Getenv("PROVIDER_AUTH_TOKEN"),
		FromNumber:     os.Getenv("PROVIDER_FROM_NUMBER"),
		VoiceURL:       os.Getenv("PROVIDER_VOICE_URL"),
		StatusCallback: os.Getenv("PROVIDER_STATUS_CALLBACK_URL"),
		EnqueueTimeout: time.Duration(timeoutSeconds) * time.Second,
	}
}
