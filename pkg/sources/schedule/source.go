// Package schedule provides the cron event source. It emits synthetic sweep
// events on a schedule, primarily the nightly user.inactive sweep that feeds
// the re-engagement campaign.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/windward-io/windward/pkg/events"
	"github.com/windward-io/windward/pkg/protocol"
)

// InactiveSubjects lists the subjects a sweep should emit events for.
// Backed by the profile store in production, by fixtures in tests.
type InactiveSubjects func(ctx context.Context) ([]string, error)

type Source struct {
	ID        string
	CronExpr  string
	EventType string

	subjects InactiveSubjects
	cron     *cron.Cron
	callback protocol.SourceCallback
	logger   *slog.Logger
}

func NewSource(id, cronExpr, eventType string, subjects InactiveSubjects, logger *slog.Logger) (*Source, error) {
	source := &Source{
		ID:        id,
		CronExpr:  cronExpr,
		EventType: eventType,
		subjects:  subjects,
		logger: logger.With(
			"module", "schedule_source",
			"id", id,
			"cron", cronExpr,
			"event_type", eventType,
		),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

func (s *Source) Validate() error {
	if s.ID == "" {
		return errors.New("schedule source ID is required")
	}

	if s.EventType == "" {
		return errors.New("schedule source event type is required")
	}

	if s.CronExpr == "" {
		return errors.New("schedule source cron expression is required")
	}

	if _, err := cron.ParseStandard(s.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

func (s *Source) Start(ctx context.Context, callback protocol.SourceCallback) error {
	s.logger.InfoContext(ctx, "Starting schedule source")
	s.callback = callback

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := s.cron.AddFunc(s.CronExpr, func() { s.Sweep(context.Background()) })
	if err != nil {
		return fmt.Errorf("failed to add cron job for source %s: %w", s.ID, err)
	}

	s.logger.InfoContext(ctx, "Added cron job", "entry_id", entryID)
	s.cron.Start()

	return nil
}

// Sweep emits one event per inactive subject. Exposed so tests and the CLI
// can run a sweep without waiting for the cron schedule.
func (s *Source) Sweep(ctx context.Context) {
	subjects, err := s.subjects(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list sweep subjects", "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Running sweep", "subjects", len(subjects))

	for _, subjectID := range subjects {
		event := events.NewAutomationEvent(s.EventType, subjectID, map[string]any{
			"sweep_id":  s.ID,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, "schedule:"+s.ID)

		if err := s.callback(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Error handling sweep event",
				"subject_id", subjectID, "error", err)
		}
	}
}

func (s *Source) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping schedule source")

	if s.cron != nil {
		s.cron.Stop()
	}

	return nil
}
