package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/vocabdrill/internal/logger"
	"github.com/example/vocabdrill/internal/spaced_repetition"
	"github.com/example/vocabdrill/internal/vocab"
	"github.com/go-co-op/gocron"
)

// Default notification settings
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
	DefaultSampleSize            = 3
)

// Notifier sends practice reminders
type Notifier interface {
	SendReminder(ctx context.Context, due int, sample []string) error
	// Busy reports whether a practice session is running. Storage is not read
	// while it does.
	Busy() bool
}

// Config controls when reminders are sent
type Config struct {
	Interval   time.Duration
	StartHour  int // first hour of the day reminders may be sent
	EndHour    int // last hour of the day reminders may be sent
	SampleSize int // number of due words named in the reminder
	Location   *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	storage   vocab.Storage
	model     *spaced_repetition.Model
	notifier  Notifier
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new scheduler instance. Due words are counted from what the
// storage holds, not from a store that a running session may be changing.
func New(storage vocab.Storage, model *spaced_repetition.Model, notifier Notifier, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		storage:   storage,
		model:     model,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", s.cfg.Interval)
	}

	_, err := s.scheduler.Every(s.cfg.Interval).WaitForSchedule().SingletonMode().Do(s.checkAndSendReminders)
	if err != nil {
		return fmt.Errorf("scheduler: failed to schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started", "interval", s.cfg.Interval.String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	hour := s.now().In(s.cfg.Location).Hour()
	if !inWindow(hour, s.cfg.StartHour, s.cfg.EndHour) {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", hour, "start", s.cfg.StartHour, "end", s.cfg.EndHour)
		return
	}

	if _, err := s.RunManualCheck(context.Background()); err != nil {
		s.log.Error("reminder check failed", "error", err)
	}
}

// RunManualCheck counts the due words and sends a reminder when there are any.
// It returns the number of due words.
func (s *Scheduler) RunManualCheck(ctx context.Context) (int, error) {
	if s.notifier.Busy() {
		s.log.Debug("practice running, skipping reminder check")
		return 0, nil
	}

	store, err := vocab.Load(ctx, s.storage)
	if err != nil {
		return 0, err
	}

	due := s.model.DueWords(store, s.now())
	if len(due) == 0 {
		return 0, nil
	}

	sample := due
	if len(sample) > s.cfg.SampleSize {
		sample = sample[:s.cfg.SampleSize]
	}
	if err := s.notifier.SendReminder(ctx, len(due), sample); err != nil {
		return len(due), fmt.Errorf("send reminder: %w", err)
	}
	s.log.Info("reminder sent", "due", len(due))
	return len(due), nil
}

// inWindow reports whether hour lies in [start, end], wrapping past midnight
// when start is after end.
func inWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}
