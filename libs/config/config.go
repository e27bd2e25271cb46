package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func String(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// ValidatePort checks that value, read from key, is a usable TCP port.
func ValidatePort(key, value string) error {
	p, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%s must be a valid TCP port (got %q)", key, value)
	}
	return nil
}

// ValidateOptionalPort is ValidatePort for settings where empty means disabled.
func ValidateOptionalPort(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return ValidatePort(key, value)
}

// Int returns fallback when the variable is unset or not a positive integer.
func Int(key string, fallback int) int {
	v, err := strconv.Atoi(String(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func Bool(key string, fallback bool) bool {
	switch strings.ToLower(String(key, "")) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

// SplitList splits a comma-separated value, dropping blank items.
func SplitList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// LoadDotEnv loads ENV_FILE (default ".env") when present. Variables already set in
// the process environment win.
func LoadDotEnv() error {
	path := String("ENV_FILE", ".env")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Process fills a struct tagged with `envconfig:"..."` from the environment.
func Process(cfg any) error {
	if err := LoadDotEnv(); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return envconfig.Process("", cfg)
}
