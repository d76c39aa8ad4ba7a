package config

import (
	"testing"
	"time"

	"github.com/example/vocabdrill/internal/quiz"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"NUM_PRACTICE_WORDS", "MAX_SCORE", "MAX_STREAK", "PRACTICE_MODE", "PRACTICE_COOLDOWN", "VOCAB_STORAGE", "TELEGRAM_CHAT_ID", "REMINDER_INTERVAL", "NOTIFICATION_START_HOUR", "NOTIFICATION_END_HOUR"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Settings != DefaultSettings() {
		t.Errorf("expected default settings, got %+v", cfg.Settings)
	}
	if cfg.StorageType != StorageJSON {
		t.Errorf("expected json storage, got %q", cfg.StorageType)
	}
	if cfg.NotificationStartHour != 8 || cfg.NotificationEndHour != 22 {
		t.Errorf("unexpected notification hours %d-%d", cfg.NotificationStartHour, cfg.NotificationEndHour)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NUM_PRACTICE_WORDS", "8")
	t.Setenv("MAX_SCORE", "20")
	t.Setenv("MAX_STREAK", "6")
	t.Setenv("PRACTICE_MODE", "trueFalse")
	t.Setenv("PRACTICE_COOLDOWN", "10m")
	t.Setenv("VOCAB_STORAGE", "SQLite")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Settings{NumPracticeWords: 8, MaxScore: 20, MaxStreak: 6, PracticeMode: quiz.ModeTrueFalse, Cooldown: 10 * time.Minute}
	if cfg.Settings != want {
		t.Errorf("expected %+v, got %+v", want, cfg.Settings)
	}
	if cfg.StorageType != StorageSQLite {
		t.Errorf("expected sqlite storage, got %q", cfg.StorageType)
	}
	if cfg.TelegramChatID != 42 {
		t.Errorf("expected chat id 42, got %d", cfg.TelegramChatID)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("NUM_PRACTICE_WORDS", "many")
	t.Setenv("PRACTICE_MODE", "essay")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid values")
	}
}

func TestValidate(t *testing.T) {
	s := DefaultSettings()
	s.NumPracticeWords = 0
	if err := s.Validate(); err == nil {
		t.Error("expected error for zero practice words")
	}

	cfg := &Config{StorageType: StoragePostgres, Settings: DefaultSettings()}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for postgres without DATABASE_URL")
	}

	cfg = &Config{StorageType: "mongo", Settings: DefaultSettings()}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown storage")
	}

	cfg = &Config{StorageType: StorageJSON, Settings: DefaultSettings(), NotificationEndHour: 24}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for notification hour out of range")
	}
}

func TestSettingsModel(t *testing.T) {
	s := Settings{NumPracticeWords: 5, MaxScore: 12, MaxStreak: 4, PracticeMode: quiz.ModeRandom, Cooldown: time.Minute}
	m := s.Model(nil)
	if m.MaxScore != 12 || m.MaxStreak != 4 || m.Cooldown != time.Minute {
		t.Errorf("unexpected model %+v", m)
	}
	if m.Rand == nil {
		t.Error("expected default random source")
	}
}
