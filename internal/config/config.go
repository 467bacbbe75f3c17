package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port          int    `env:"PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	RedisURL      string `env:"REDIS_URL,required"`
	SessionSecret string `env:"SESSION_SECRET"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	// Telegram API credentials for the account linking flow. When unset,
	// linking endpoints reject requests instead of dialing the provider.
	TelegramAPIID   int    `env:"TELEGRAM_API_ID"`
	TelegramAPIHash string `env:"TELEGRAM_API_HASH"`

	// Companion notification bot. Optional; the bot is not started when
	// the token is empty.
	BotToken    string `env:"BOT_TOKEN"`
	BotUsername string `env:"BOT_USERNAME"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"Blastline <noreply@blastline.app>"`

	LinkAttemptTTLSeconds int    `env:"LINK_ATTEMPT_TTL_SECONDS" envDefault:"600"`
	BotLinkTTLSeconds     int    `env:"BOT_LINK_TTL_SECONDS" envDefault:"900"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) LinkAttemptTTL() time.Duration {
	return time.Duration(c.LinkAttemptTTLSeconds) * time.Second
}

func (c *Config) BotLinkTTL() time.Duration {
	return time.Duration(c.BotLinkTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ProviderConfigured reports whether Telegram API credentials are present.
func (c *Config) ProviderConfigured() bool {
	return c.TelegramAPIID != 0 && c.TelegramAPIHash != ""
}

func (c *Config) BotConfigured() bool {
	return c.BotToken != ""
}

func (c *Config) Validate(isProduction bool) error {
	if c.EncryptionKey != "" {
		key, err := hex.DecodeString(c.EncryptionKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters (generate with: openssl rand -hex 32)")
		}
	}

	if c.BotToken != "" && c.BotUsername == "" {
		return fmt.Errorf("BOT_USERNAME is required when BOT_TOKEN is set (used to build deep links)")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}

		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: telegram session credentials will not be encrypted at rest")
		}
		if !c.ProviderConfigured() {
			log.Warn().Msg("TELEGRAM_API_ID/TELEGRAM_API_HASH not set: account linking is disabled")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
