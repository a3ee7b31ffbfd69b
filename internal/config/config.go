package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const MinSecretKeyLength = 32

var (
	ErrSecretKeyMissing     = errors.New("secret key is required")
	ErrSecretKeyPlaceholder = errors.New("secret key uses an example placeholder")
	ErrSecretKeyTooShort    = fmt.Errorf("secret key must be at least %d characters", MinSecretKeyLength)
	ErrPortInvalid          = errors.New("port must be between 1 and 65535")
	ErrReminderDaysInvalid  = errors.New("reminder days before must not be negative")
)

var placeholderSecrets = map[string]bool{
	"change_me_in_production":                    true,
	"replace_with_at_least_32_random_characters": true,
}

type ReminderConfig struct {
	// Schedule is a five-field cron expression evaluated in Config.Timezone.
	Schedule   string `yaml:"schedule"`
	DaysBefore int    `yaml:"days_before"`
}

// TelegramConfig holds the bot credentials. Each account registers its own
// chat ID through the API; reminders never go to a shared chat.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
}

type Config struct {
	Port            string         `yaml:"port"`
	DBPath          string         `yaml:"db_path"`
	SecretKey       string         `yaml:"secret_key"`
	Timezone        string         `yaml:"timezone"`
	DefaultLanguage string         `yaml:"default_language"`
	CookieSecure    bool           `yaml:"cookie_secure"`
	Reminders       ReminderConfig `yaml:"reminders"`
	Telegram        TelegramConfig `yaml:"telegram"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		DBPath:          filepath.Join("data", "cyclemark.db"),
		Timezone:        "UTC",
		DefaultLanguage: "en",
		Reminders: ReminderConfig{
			Schedule:   "0 9 * * *",
			DaysBefore: 2,
		},
	}
}

// Normalize fills blank fields with defaults so partial files still work.
func (c *Config) Normalize() {
	defaults := DefaultConfig()

	c.Port = strings.TrimSpace(c.Port)
	if c.Port == "" {
		c.Port = defaults.Port
	}
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = defaults.DBPath
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = defaults.Timezone
	}
	if strings.TrimSpace(c.DefaultLanguage) == "" {
		c.DefaultLanguage = defaults.DefaultLanguage
	}
	if strings.TrimSpace(c.Reminders.Schedule) == "" {
		c.Reminders.Schedule = defaults.Reminders.Schedule
	}
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
}

// Load reads the YAML file at path, applies environment overrides and
// normalizes the result. An empty path or a missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("config: %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// LoadFromEnv loads the file named by CONFIG_PATH.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.SecretKey = getEnv("SECRET_KEY", c.SecretKey)
	c.Timezone = getEnv("TZ", c.Timezone)
	c.DefaultLanguage = getEnv("DEFAULT_LANGUAGE", c.DefaultLanguage)
	c.Reminders.Schedule = getEnv("REMINDER_CRON", c.Reminders.Schedule)
	c.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)

	if raw := strings.TrimSpace(os.Getenv("COOKIE_SECURE")); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = secure
	}
	if raw := strings.TrimSpace(os.Getenv("REMINDER_DAYS_BEFORE")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse REMINDER_DAYS_BEFORE: %w", err)
		}
		c.Reminders.DaysBefore = days
	}
	return nil
}

// Validate checks the settings the server refuses to start without. An
// unknown timezone is not an error; Location falls back to UTC.
func (c *Config) Validate() error {
	if err := ValidateSecretKey(c.SecretKey); err != nil {
		return err
	}
	if _, err := ParsePort(c.Port); err != nil {
		return err
	}
	if c.Reminders.DaysBefore < 0 {
		return ErrReminderDaysInvalid
	}
	if _, err := cron.ParseStandard(c.Reminders.Schedule); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", c.Reminders.Schedule, err)
	}
	return nil
}

func ValidateSecretKey(secret string) error {
	secret = strings.TrimSpace(secret)
	switch {
	case secret == "":
		return ErrSecretKeyMissing
	case placeholderSecrets[strings.ToLower(secret)]:
		return ErrSecretKeyPlaceholder
	case len(secret) < MinSecretKeyLength:
		return ErrSecretKeyTooShort
	}
	return nil
}

func ParsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || port < 1 || port > 65535 {
		return 0, ErrPortInvalid
	}
	return port, nil
}

func (c *Config) Location() *time.Location {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("config: invalid TZ %q, falling back to UTC", c.Timezone)
		return time.UTC
	}
	return location
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
