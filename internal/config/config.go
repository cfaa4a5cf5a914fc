package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           int
	DatabaseURL    string
	LogLevel       string
	DeepSeekAPIKey string
	DeepSeekURL    string
	Model          string
	Persona        string
	SessionGap     time.Duration
	TitleLen       int
	RequestTimeout time.Duration
	RetryTransport bool
	APIToken       string
	NatsURL        string
	NatsToken      string
}

func Load() Config {
	return Config{
		Port:           envInt("QUANTCHAT_PORT", 8780),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		DeepSeekAPIKey: envStr("DEEPSEEK_API_KEY", ""),
		DeepSeekURL:    envStr("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
		Model:          envStr("QUANTCHAT_MODEL", "deepseek-chat"),
		Persona:        envStr("QUANTCHAT_PERSONA", ""),
		SessionGap:     envDuration("QUANTCHAT_SESSION_GAP", time.Hour),
		TitleLen:       envInt("QUANTCHAT_TITLE_LEN", 10),
		RequestTimeout: envDuration("QUANTCHAT_REQUEST_TIMEOUT", 30*time.Second),
		RetryTransport: envBool("QUANTCHAT_RETRY_TRANSPORT", true),
		APIToken:       envStr("QUANTCHAT_API_TOKEN", ""),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
