package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dukex/flowadmin/pkg/cmd"
	"github.com/dukex/flowadmin/pkg/flowstore"
	"github.com/dukex/flowadmin/pkg/log"
	"github.com/dukex/flowadmin/pkg/otelhelper"
	"github.com/dukex/flowadmin/pkg/scheduler"
	"github.com/dukex/flowadmin/pkg/services"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 1880

// setupLogger installs the default handler at the given level and returns
// the api module logger built on top of it.
func setupLogger(w io.Writer, level string) *slog.Logger {
	log.SetupWriter(w, level)

	return log.WithModule("api")
}

func main() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	command := &cli.Command{
		Name:                  "flowadmin-api",
		Usage:                 "Administer deployed flows",
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
				Usage:    "Flow storage URL (file path, postgres:// or redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "audit-bus",
				Usage:   "Audit event bus (log, gochannel, kafka)",
				Value:   "log",
				Sources: cli.EnvVars("AUDIT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers for the kafka audit bus",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "credentials-catalog",
				Usage:   "YAML file declaring credential fields per node type",
				Sources: cli.EnvVars("CREDENTIALS_CATALOG"),
			},
			&cli.StringFlag{
				Name:    "reload-schedule",
				Usage:   "Cron expression for periodic reload deployments",
				Sources: cli.EnvVars("RELOAD_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := setupLogger(os.Stderr, command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flow Admin API")

			var tracer trace.Tracer

			if command.Bool("tracing") {
				t, shutdown, err := otelhelper.NewTracer(ctx, "flowadmin-api")
				if err != nil {
					return err
				}

				defer func() {
					if err := shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()

				tracer = t
			}

			registry, err := cmd.NewRegistry(ctx, logger, command.String("credentials-catalog"))
			if err != nil {
				return err
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			sink, closeSink, err := cmd.NewAuditSink(ctx, command.String("audit-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := closeSink(); err != nil {
					logger.ErrorContext(ctx, "Failed to close audit bus", "error", err)
				}
			}()

			store, err := flowstore.NewStore(logger, persistence, registry)
			if err != nil {
				return err
			}

			if _, err := store.Reload(ctx); err != nil {
				return err
			}

			flows := services.NewFlows(store, sink, tracer, logger)

			if schedule := command.String("reload-schedule"); schedule != "" {
				reloader, err := scheduler.NewReloadScheduler(schedule, flows, logger)
				if err != nil {
					return err
				}

				if err := reloader.Start(ctx); err != nil {
					return err
				}

				defer reloader.Stop(ctx)
			}

			api := NewAPI(logger, store, flows, registry)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return err
		},
	}

	err = command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
