package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"calistenia/internal/api/handler"
	"calistenia/internal/config"
	"calistenia/internal/datastore"
	"calistenia/internal/scheduler"
	"calistenia/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	container := NewContainer(cfg)

	app := &cli.App{
		Name: "bot",
		Commands: []*cli.Command{
			commandRun(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func commandRun(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "start the academy bot, scheduler and web server",
		Action: func(c *cli.Context) error {
			cfg := do.MustInvoke[*config.Config](container)

			postgresDB, err := do.Invoke[*bun.DB](container)
			if err != nil {
				return err
			}
			if err := createTables(c.Context, postgresDB); err != nil {
				return err
			}

			session, err := do.Invoke[*discordgo.Session](container)
			if err != nil {
				return err
			}
			b, err := newBot(container)
			if err != nil {
				return err
			}
			b.register(session)

			sched, err := do.Invoke[*scheduler.Scheduler](container)
			if err != nil {
				return err
			}

			router, err := handler.New(&handler.Config{
				Container: container,
				Mode:      cfg.Mode,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:    cfg.HTTPAddr,
				Handler: router,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				if err := session.Open(); err != nil {
					return err
				}
				logger.Info("gateway connected")
				return sched.Start()
			})

			errWg.Go(func() error {
				logger.WithFields(map[string]interface{}{"addr": cfg.HTTPAddr, "mode": cfg.Mode}).
					Info("listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				sched.Stop()
				if err := session.Close(); err != nil {
					logger.WithFields(map[string]interface{}{"error": err}).Warn("close session")
				}
				return srv.Shutdown(context.TODO())
			})

			return errWg.Wait()
		},
	}
}

func createTables(ctx context.Context, db *bun.DB) error {
	if err := datastore.CreateTableUserProgress(ctx, db); err != nil {
		return err
	}
	if err := datastore.CreateTableClass(ctx, db); err != nil {
		return err
	}
	return datastore.CreateTableCounter(ctx, db)
}
