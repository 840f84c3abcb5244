package main

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xraph/bistro"
	"github.com/xraph/bistro/tax"
)

// config is read from BISTRO_* environment variables.
type config struct {
	Currency       string
	Tenant         string
	VATBasisPoints int64
	LogLevel       slog.Level
}

func loadConfig() config {
	return config{
		Currency:       strings.ToLower(getEnv("BISTRO_CURRENCY", bistro.DefaultCurrency)),
		Tenant:         getEnv("BISTRO_TENANT", "default"),
		VATBasisPoints: getEnvInt("BISTRO_VAT_BPS", tax.StandardBasisPoints),
		LogLevel:       parseLevel(getEnv("BISTRO_LOG_LEVEL", "warn")),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return l
}
