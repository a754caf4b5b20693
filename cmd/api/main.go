package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rewardhub/backend/internal/config"
	"github.com/rewardhub/backend/internal/handlers"
	"github.com/rewardhub/backend/internal/jobs"
	"github.com/rewardhub/backend/internal/middleware"
)

const shutdownTimeout = 15 * time.Second

func main() {
	app := &cli.App{
		Name:  "rewardhub",
		Usage: "reward hub backend",
		Commands: []*cli.Command{
			commandServe(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("rewardhub exited", "error", err)
		os.Exit(1)
	}
}

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (defaults to 0.0.0.0:$PORT)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before reading the environment",
			},
		},
		Action: func(c *cli.Context) error {
			if err := godotenv.Load(c.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", c.String("env-file"), err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			slog.SetDefault(logger)

			injector := NewContainer(cfg, logger)
			defer func() {
				if err := injector.Shutdown(); err != nil {
					logger.Error("container shutdown", "error", err)
				}
			}()

			api, err := do.Invoke[http.Handler](injector)
			if err != nil {
				return fmt.Errorf("build router: %w", err)
			}
			sched, err := do.Invoke[*jobs.Scheduler](injector)
			if err != nil {
				return fmt.Errorf("build scheduler: %w", err)
			}
			sched.Start()

			corsHandler := cors.New(cors.Options{
				AllowedOrigins:   cfg.AllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
				ExposedHeaders:   []string{handlers.AccessTokenHeader, middleware.RequestIDHeader},
				AllowCredentials: true,
			}).Handler(api)

			addr := c.String("addr")
			if addr == "" {
				addr = cfg.Addr()
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           corsHandler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("starting HTTP server", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down HTTP server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
}
