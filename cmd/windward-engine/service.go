package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/windward-io/windward/pkg/eventbus"
	"github.com/windward-io/windward/pkg/events"
	"github.com/windward-io/windward/pkg/persistence"
	"github.com/windward-io/windward/pkg/protocol"
	"github.com/windward-io/windward/pkg/registry"
	"github.com/windward-io/windward/pkg/sources/queue"
	"github.com/windward-io/windward/pkg/sources/schedule"
	"github.com/windward-io/windward/pkg/workflow"
)

type ServiceConfig struct {
	EngineID     string
	Logger       *slog.Logger
	Persistence  persistence.Persistence
	EventBus     eventbus.EventBus
	Registry     *registry.Registry
	Tracer       trace.Tracer
	RedisAddr    string
	EventQueue   string
	SweepCron    string
	ScanInterval time.Duration
}

// Service assembles the engine process: catalog, router, scheduler and the
// event sources, run until the process is signalled.
type Service struct {
	config    ServiceConfig
	logger    *slog.Logger
	catalog   *workflow.Catalog
	engine    *workflow.Engine
	router    *workflow.Router
	scheduler *workflow.Scheduler
	sources   []protocol.EventSource
}

func NewService(config ServiceConfig) *Service {
	catalog := workflow.NewCatalog(config.Logger, config.Persistence.WorkflowRepository(), config.Registry)

	engine := workflow.NewEngine(
		config.Logger,
		catalog,
		config.Persistence.ExecutionRepository(),
		config.Registry,
		config.EventBus,
		config.Tracer,
	)

	router := workflow.NewRouter(config.Logger, catalog, engine, config.Tracer)

	scheduler := workflow.NewScheduler(
		config.Logger,
		config.Persistence.ExecutionRepository(),
		engine,
		workflow.WithScanInterval(config.ScanInterval),
	)

	return &Service{
		config:    config,
		logger:    config.Logger,
		catalog:   catalog,
		engine:    engine,
		router:    router,
		scheduler: scheduler,
	}
}

func (s *Service) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.catalog.Restore(ctx); err != nil {
		return err
	}

	for _, builtin := range workflow.Builtins(time.Now().UTC()) {
		if _, err := s.catalog.Get(builtin.ID); err == nil {
			continue
		}

		if err := s.catalog.Register(ctx, builtin); err != nil {
			return fmt.Errorf("failed to register builtin workflow %s: %w", builtin.ID, err)
		}
	}

	s.router.BindCatalog()

	if err := s.config.EventBus.SubscribeAutomation(ctx, s.router.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to event topic: %w", err)
	}

	if err := s.startSources(ctx); err != nil {
		return err
	}

	s.scheduler.Start(ctx)

	s.logger.InfoContext(ctx, "Engine running",
		"workflows", len(s.catalog.All()),
		"sources", len(s.sources))

	<-ctx.Done()

	s.logger.Info("Shutting down engine")

	s.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, source := range s.sources {
		if err := source.Stop(shutdownCtx); err != nil {
			s.logger.Error("Failed to stop event source", "error", err)
		}
	}

	return nil
}

func (s *Service) startSources(ctx context.Context) error {
	callback := func(ctx context.Context, event events.AutomationEvent) error {
		return s.config.EventBus.PublishAutomation(ctx, event)
	}

	if s.config.RedisAddr != "" {
		source, err := queue.NewSource(s.config.RedisAddr, "", 0, s.config.EventQueue, s.logger)
		if err != nil {
			return fmt.Errorf("failed to build queue source: %w", err)
		}

		if err := source.Start(ctx, callback); err != nil {
			return fmt.Errorf("failed to start queue source: %w", err)
		}

		s.sources = append(s.sources, source)
	}

	if s.config.SweepCron != "" {
		source, err := schedule.NewSource(
			"inactivity-sweep",
			s.config.SweepCron,
			events.EventUserInactive,
			s.inactiveSubjects,
			s.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to build schedule source: %w", err)
		}

		if err := source.Start(ctx, callback); err != nil {
			return fmt.Errorf("failed to start schedule source: %w", err)
		}

		s.sources = append(s.sources, source)
	}

	return nil
}

// inactiveSubjects lists profiles with no activity in the last 30 days.
func (s *Service) inactiveSubjects(ctx context.Context) ([]string, error) {
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	return s.config.Persistence.ProfileRepository().InactiveSince(ctx, cutoff)
}
