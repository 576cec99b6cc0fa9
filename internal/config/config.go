package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Default council roster, overridable via COUNCIL_MODELS.
var defaultCouncilModels = []string{
	"openai/gpt-5.1",
	"google/gemini-3-pro-preview",
	"anthropic/claude-sonnet-4.5",
	"x-ai/grok-4",
}

type Config struct {
	Port             int
	OpenRouterAPIKey string
	CouncilModels    []string
	ChairmanModel    string
	TitleModel       string
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
	LogLevel         string
}

func Load() Config {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	return Config{
		Port:             envInt("COUNCIL_PORT", 8001),
		OpenRouterAPIKey: envStr("OPENROUTER_API_KEY", ""),
		CouncilModels:    envList("COUNCIL_MODELS", defaultCouncilModels),
		ChairmanModel:    envStr("CHAIRMAN_MODEL", "google/gemini-3-pro-preview"),
		TitleModel:       envStr("TITLE_MODEL", "google/gemini-2.5-flash"),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", ""),
		NatsToken:        envStr("NATS_TOKEN", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
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

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
