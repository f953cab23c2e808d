package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/windward-io/windward/pkg/cmd"
	"github.com/windward-io/windward/pkg/log"
	"github.com/windward-io/windward/pkg/mailer"
	"github.com/windward-io/windward/pkg/profiles"
	"github.com/windward-io/windward/pkg/workflow"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "windward-api",
		Usage:                 "Ingest events and manage workflow executions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup("windward-api", command.String("log-level"))

			logger.InfoContext(ctx, "Initializing windward API")

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

			profileStore := profiles.NewStore(logger, persistence.ProfileRepository())
			registry := cmd.NewRegistry(logger, mailer.NewLogMailer(logger), profileStore)

			catalog := workflow.NewCatalog(logger, persistence.WorkflowRepository(), registry)
			if err := catalog.Restore(ctx); err != nil {
				return err
			}

			for _, builtin := range workflow.Builtins(time.Now().UTC()) {
				if _, err := catalog.Get(builtin.ID); err == nil {
					continue
				}

				if err := catalog.Register(ctx, builtin); err != nil {
					return err
				}
			}

			engine := workflow.NewEngine(
				logger,
				catalog,
				persistence.ExecutionRepository(),
				registry,
				eventBus,
				nil,
			)

			api := NewAPI(logger, persistence, catalog, engine, eventBus)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		slog.Error("windward-api exited", "error", err)
		os.Exit(1)
	}
}
