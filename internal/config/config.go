package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	APIURL      string
	Token       string
	UserID      string
	SessionFile string
	RedisURL    string
	LogLevel    string

	HandshakeTimeout     time.Duration
	ReconnectDelay       time.Duration
	ReconnectMaxDelay    time.Duration
	ReconnectFactor      float64
	ReconnectMaxAttempts int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		APIURL:      getEnv("WISHERA_API_URL", "http://localhost:5000"),
		Token:       getEnv("WISHERA_TOKEN", ""),
		UserID:      getEnv("WISHERA_USER_ID", ""),
		SessionFile: getEnv("WISHERA_SESSION_FILE", ""),
		// Empty disables the Redis relay.
		RedisURL: getEnv("REDIS_URL", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HandshakeTimeout:     getEnvDuration("CHAT_HANDSHAKE_TIMEOUT", 10*time.Second),
		ReconnectDelay:       getEnvDuration("CHAT_RECONNECT_DELAY", 1500*time.Millisecond),
		ReconnectMaxDelay:    getEnvDuration("CHAT_RECONNECT_MAX_DELAY", 0),
		ReconnectFactor:      getEnvFloat("CHAT_RECONNECT_FACTOR", 1),
		ReconnectMaxAttempts: getEnvInt("CHAT_RECONNECT_MAX_ATTEMPTS", 0),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
