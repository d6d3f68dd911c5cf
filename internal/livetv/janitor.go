package livetv

import (
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically reclaims live sessions that have sat without
// consumers for longer than the configured grace period.
type Janitor struct {
	manager  *SessionManager
	ttl      time.Duration
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewJanitor creates a janitor sweeping on the given six-field cron
// schedule (seconds included).
func NewJanitor(manager *SessionManager, ttl time.Duration, schedule string) *Janitor {
	return &Janitor{
		manager:  manager,
		ttl:      ttl,
		schedule: schedule,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger for sweep reports.
func (j *Janitor) WithLogger(logger *slog.Logger) *Janitor {
	if logger != nil {
		j.logger = logger
	}
	return j
}

// Start schedules the sweep and begins running it.
func (j *Janitor) Start() error {
	j.cron = cron.New(cron.WithSeconds())
	if _, err := j.cron.AddFunc(j.schedule, j.sweep); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("live session janitor started",
		slog.String("schedule", j.schedule),
		slog.Duration("session_ttl", j.ttl))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) sweep() {
	if closed := j.manager.CloseIdle(j.ttl); closed > 0 {
		j.logger.Info("idle live sessions reclaimed", slog.Int("count", closed))
	}
}
