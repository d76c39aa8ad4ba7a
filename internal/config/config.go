package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/vocabdrill/internal/quiz"
	"github.com/example/vocabdrill/internal/spaced_repetition"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageJSON     = "json"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Settings are the practice parameters. They do not change during a session.
type Settings struct {
	NumPracticeWords int
	MaxScore         int
	MaxStreak        int
	PracticeMode     quiz.Mode
	Cooldown         time.Duration
}

// Config holds application configuration
type Config struct {
	Settings Settings

	StorageType string // json, sqlite or postgres
	VocabFile   string // JSON vocabulary file
	DBPath      string // sqlite database file
	DatabaseURL string // postgres connection string

	TelegramToken         string
	TelegramChatID        int64
	ReminderInterval      time.Duration
	NotificationStartHour int // reminders are sent from this hour
	NotificationEndHour   int // until the end of this hour

	LogMode string
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		NumPracticeWords: 15,
		MaxScore:         spaced_repetition.DefaultMaxScore,
		MaxStreak:        spaced_repetition.DefaultMaxStreak,
		PracticeMode:     quiz.ModeRandom,
		Cooldown:         spaced_repetition.DefaultCooldown,
	}
}

// Load reads configuration from a .env file, if present, and the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	defaults := DefaultSettings()
	var errs []error

	mode, err := quiz.ParseMode(os.Getenv("PRACTICE_MODE"))
	if err != nil {
		errs = append(errs, fmt.Errorf("PRACTICE_MODE: %w", err))
	}

	cfg := &Config{
		Settings: Settings{
			NumPracticeWords: getInt("NUM_PRACTICE_WORDS", defaults.NumPracticeWords, &errs),
			MaxScore:         getInt("MAX_SCORE", defaults.MaxScore, &errs),
			MaxStreak:        getInt("MAX_STREAK", defaults.MaxStreak, &errs),
			PracticeMode:     mode,
			Cooldown:         getDuration("PRACTICE_COOLDOWN", defaults.Cooldown, &errs),
		},
		StorageType:      strings.ToLower(getEnv("VOCAB_STORAGE", StorageJSON)),
		VocabFile:        getEnv("VOCAB_FILE", "vocab.json"),
		DBPath:           getEnv("DB_PATH", "vocab.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   int64(getInt("TELEGRAM_CHAT_ID", 0, &errs)),
		ReminderInterval: getDuration("REMINDER_INTERVAL", time.Hour, &errs),
		LogMode:          getEnv("LOG_MODE", "dev"),

		NotificationStartHour: getInt("NOTIFICATION_START_HOUR", 8, &errs),
		NotificationEndHour:   getInt("NOTIFICATION_END_HOUR", 22, &errs),
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the storage selection and the practice settings.
func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageJSON, StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("config: unsupported VOCAB_STORAGE %q", c.StorageType)
	}
	if c.TelegramToken != "" && c.ReminderInterval <= 0 {
		return fmt.Errorf("config: reminder interval must be positive, got %s", c.ReminderInterval)
	}
	for _, h := range []int{c.NotificationStartHour, c.NotificationEndHour} {
		if h < 0 || h > 23 {
			return fmt.Errorf("config: notification hour must be between 0 and 23, got %d", h)
		}
	}
	return c.Settings.Validate()
}

// Validate checks that the practice settings are usable.
func (s Settings) Validate() error {
	if s.NumPracticeWords <= 0 {
		return fmt.Errorf("config: number of practice words must be positive, got %d", s.NumPracticeWords)
	}
	if s.MaxScore <= 0 {
		return fmt.Errorf("config: max score must be positive, got %d", s.MaxScore)
	}
	if s.MaxStreak <= 0 {
		return fmt.Errorf("config: max streak must be positive, got %d", s.MaxStreak)
	}
	if s.Cooldown < 0 {
		return fmt.Errorf("config: cooldown must not be negative, got %s", s.Cooldown)
	}
	if _, err := quiz.ParseMode(string(s.PracticeMode)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Model builds the scoring model for these settings.
func (s Settings) Model(rnd spaced_repetition.Rand) *spaced_repetition.Model {
	m := spaced_repetition.NewModel()
	m.MaxScore = s.MaxScore
	m.MaxStreak = s.MaxStreak
	m.Cooldown = s.Cooldown
	if rnd != nil {
		m.Rand = rnd
	}
	return m
}

func getEnv(k, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return fallback
}

func getInt(k string, fallback int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a valid integer", k, v))
		return fallback
	}
	return i
}

func getDuration(k string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a valid duration", k, v))
		return fallback
	}
	return d
}
