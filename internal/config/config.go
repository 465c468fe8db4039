package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTP              HTTPConfig
	DatabaseURL       string
	UserDBFile        string
	SessionSecretFile string
	SessionTTL        time.Duration
	AuditLogFile      string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
		},
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		UserDBFile:        getEnv("USER_DB_FILE", "./data/users.json"),
		SessionSecretFile: getEnv("SESSION_SECRET_FILE", "./secret.key"),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_SEC", 43200)) * time.Second,
		AuditLogFile:      getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.UserDBFile == "" {
		return Config{}, fmt.Errorf("USER_DB_FILE must not be empty")
	}
	if cfg.SessionSecretFile == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET_FILE must not be empty")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_SEC must be > 0")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
