package config

import (
	"os"
	"strconv"
	"strings"
)

// Config centralizes runtime settings for the bot and the scheduler.
type Config struct {
	BotToken           string
	PollTimeoutSeconds int

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TimezoneName string
	DateLocales  []string

	MinLeadSeconds  int
	SweepIntervalMS int

	ReceiverSelectionEnabled bool
	DefaultReceiverChatID    int64

	OperatorChatID int64

	SendRPS   float64
	SendBurst int
}

func Load() Config {
	return Config{
		BotToken:           getEnv("BOT_TOKEN", ""),
		PollTimeoutSeconds: getEnvInt("POLL_TIMEOUT_SECONDS", 30),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		TimezoneName: getEnv("DEFAULT_TIMEZONE", "Europe/Moscow"),
		DateLocales:  getEnvList("DATE_LOCALES", "ru,en"),

		MinLeadSeconds:  getEnvInt("MIN_LEAD_SECONDS", 10),
		SweepIntervalMS: getEnvInt("SWEEP_INTERVAL_MS", 500),

		ReceiverSelectionEnabled: getEnvBool("RECEIVER_SELECTION_ENABLED", false),
		DefaultReceiverChatID:    getEnvInt64("DEFAULT_RECEIVER_CHAT_ID", 0),

		OperatorChatID: getEnvInt64("OPERATOR_CHAT_ID", 0),

		SendRPS:   getEnvFloat("SEND_RPS", 25),
		SendBurst: getEnvInt("SEND_BURST", 5),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key, fallback string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
