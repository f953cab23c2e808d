package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/windward-io/windward/pkg/cmd"
	"github.com/windward-io/windward/pkg/log"
	"github.com/windward-io/windward/pkg/mailer"
	"github.com/windward-io/windward/pkg/otelhelper"
	"github.com/windward-io/windward/pkg/profiles"
	"github.com/windward-io/windward/pkg/protocol"
)

func main() {
	command := &cli.Command{
		Name:                  "windward-engine",
		Usage:                 "Start the windward automation engine",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "engine-id",
				Aliases: []string{"id"},
				Usage:   "Custom engine ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("ENGINE_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "mailer-endpoint",
				Usage:   "Email provider HTTP endpoint (log-only mailer if empty)",
				Sources: cli.EnvVars("MAILER_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "mailer-api-key",
				Usage:   "Email provider API key",
				Sources: cli.EnvVars("MAILER_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the queue event source (disabled if empty)",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "event-queue",
				Usage:   "Redis list the storefront pushes events onto",
				Value:   "windward:events",
				Sources: cli.EnvVars("EVENT_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "sweep-cron",
				Usage:   "Cron expression for the inactivity sweep (disabled if empty)",
				Sources: cli.EnvVars("SWEEP_CRON"),
			},
			&cli.DurationFlag{
				Name:    "scan-interval",
				Usage:   "How often to scan for due wait resumptions",
				Value:   30 * time.Second,
				Sources: cli.EnvVars("SCAN_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup("windward-engine", command.String("log-level"))

			engineID := command.String("engine-id")
			if engineID == "" {
				engineID = fmt.Sprintf("engine-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("windward-engine").With("engine_id", engineID)

			logger.InfoContext(ctx, "Initializing windward engine")

			tracer, err := otelhelper.NewTracer(ctx, "windward-engine")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
				tracer = nil
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var mail protocol.Mailer
			if endpoint := command.String("mailer-endpoint"); endpoint != "" {
				mail = mailer.NewHTTPMailer(logger, endpoint, command.String("mailer-api-key"))
			} else {
				mail = mailer.NewLogMailer(logger)
			}

			profileStore := profiles.NewStore(logger, persistence.ProfileRepository())
			registry := cmd.NewRegistry(logger, mail, profileStore)

			service := NewService(ServiceConfig{
				EngineID:     engineID,
				Logger:       logger,
				Persistence:  persistence,
				EventBus:     eventBus,
				Registry:     registry,
				Tracer:       tracer,
				RedisAddr:    command.String("redis-addr"),
				EventQueue:   command.String("event-queue"),
				SweepCron:    command.String("sweep-cron"),
				ScanInterval: command.Duration("scan-interval"),
			})

			return service.Run(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		slog.Error("windward-engine exited", "error", err)
		os.Exit(1)
	}
}
