package confs

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL must be set")

type Config struct {
	DatabaseURL       string
	Host              string
	Port              string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	LogLevel          string
	BcryptCost        int
	AllowedOrigins    []string
}

// LoadConfig loads environment variables from a .env file if present
// and builds the runtime configuration from the environment.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Host:              getEnvOrDefault("HOST", "0.0.0.0"),
		Port:              getEnvOrDefault("PORT", "8000"),
		DBMaxOpenConns:    getIntEnvOrDefault("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getIntEnvOrDefault("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getDurationEnvOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		LogLevel:          strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		BcryptCost:        getIntEnvOrDefault("BCRYPT_COST", bcrypt.DefaultCost),
		AllowedOrigins:    splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		log.Printf("Invalid BCRYPT_COST=%d, using default %d", cfg.BcryptCost, bcrypt.DefaultCost)
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.DBMaxIdleConns > cfg.DBMaxOpenConns {
		cfg.DBMaxIdleConns = cfg.DBMaxOpenConns
	}

	return cfg, nil
}

// AllowAllOrigins reports whether CORS should accept any origin.
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("Invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}

	return value
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		log.Printf("Invalid %s=%q, using default %s", key, raw, defaultValue)
		return defaultValue
	}

	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
