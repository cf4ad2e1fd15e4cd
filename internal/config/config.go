package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Auth     AuthConfig
	Notifier NotifierConfig
	Audit    AuditConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig maps API tokens to the owner each token acts for.
type AuthConfig struct {
	Tokens map[string]string
}

// NotifierConfig holds the optional sale notification webhook target.
type NotifierConfig struct {
	WebhookURL string
}

// AuditConfig holds the ledger audit schedule.
type AuditConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	tokens, err := parseTokenPairs(os.Getenv("API_TOKENS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stockbook"),
		},
		Auth: AuthConfig{
			Tokens: tokens,
		},
		Notifier: NotifierConfig{
			WebhookURL: os.Getenv("SALE_WEBHOOK_URL"),
		},
		Audit: AuditConfig{
			CronSchedule: getenvWithDefault("AUDIT_CRON_SCHEDULE", "0 2 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if len(c.Auth.Tokens) == 0 {
		return errors.New("API_TOKENS must provide at least one token:owner pair")
	}

	if c.Audit.CronSchedule == "" {
		return errors.New("AUDIT_CRON_SCHEDULE must be provided")
	}
	if c.Audit.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

// parseTokenPairs parses "token:owner,token:owner" into a lookup table.
func parseTokenPairs(raw string) (map[string]string, error) {
	tokens := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return tokens, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("API_TOKENS entry %q is not token:owner", pair)
		}
		tokens[parts[0]] = parts[1]
	}
	return tokens, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
