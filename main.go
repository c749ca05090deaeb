package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/bot"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/config"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/enforce"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/fanout"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/privilege"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/resolve"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/state"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/storage"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("main: Exiting", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:  "edit-guard-bot",
		Usage: "deletes edited group messages after a delay and applies global bans and mutes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "v",
				Usage: "Enable verbose logging (LevelInfo)",
			},
			&cli.BoolFlag{
				Name:  "vv",
				Usage: "Enable very verbose logging (LevelDebug)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "path to a .env file loaded before reading the environment",
				Value: ".env",
			},
		},
		Action: runBot,
	}

	return app.Run(args)
}

func runBot(cctx *cli.Context) error {
	setLogLevel(cctx.Bool("v"), cctx.Bool("vv"))
	slog.Debug("main: Command-line flags parsed", "verbose", cctx.Bool("v"), "very_verbose", cctx.Bool("vv"))

	config.LoadEnvFile(cctx.String("env-file"))
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	store := state.New(cfg.OwnerID, backend, slog.Default())
	found, err := store.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	if !found {
		bootstrapDeputies(ctx, store, cfg.BootstrapDeputies)
	}

	api, err := bot.NewAPI(cfg.Token, slog.Default())
	if err != nil {
		return err
	}
	tg := platform.NewTelegram(api)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.FanoutRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.FanoutRate), 1)
	}

	enforcer := enforce.New(store, tg, enforce.WithLogger(slog.Default()))
	commands := bot.NewCommands(
		store,
		privilege.NewChecker(store, tg),
		resolve.NewResolver(tg),
		fanout.New(store, tg, limiter, slog.Default()),
		tg,
	)

	if cfg.MetricsListen != "" {
		go serveMetrics(cfg.MetricsListen)
	}

	slog.Info("main: Starting bot...", "backend", cfg.StorageBackend, "owner_id", cfg.OwnerID)
	runErr := bot.New(api, commands, enforcer, store).Run(ctx)

	slog.Info("main: Shutting down")
	enforcer.Close()

	persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Persist(persistCtx); err != nil {
		slog.Error("main: Final persist failed", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func openBackend(cfg *config.Config) (storage.Backend, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		slog.Debug("main: Initializing storage", "db_path", cfg.DatabasePath)
		db, err := storage.NewSQLite(cfg.DatabasePath, slog.Default())
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				slog.Error("main: Failed to close database", "error", err)
			}
		}, nil
	default:
		slog.Debug("main: Using JSON data file", "path", cfg.DataPath)
		return storage.NewJSONFile(cfg.DataPath), func() {}, nil
	}
}

// bootstrapDeputies seeds the deputy tier on a fresh start
func bootstrapDeputies(ctx context.Context, store *state.Store, ids []int64) {
	for _, id := range ids {
		if _, err := store.Grant(ctx, id, state.TierDeputy); err != nil {
			slog.Warn("main: Skipping bootstrap deputy", "user_id", id, "error", err)
		}
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	slog.Info("main: Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("main: Metrics server failed", "error", err)
	}
}

// setLogLevel configures the logging level based on the provided flags
func setLogLevel(verbose, veryVerbose bool) {
	logLevel := slog.LevelWarn // Default level
	if veryVerbose {
		logLevel = slog.LevelDebug
	} else if verbose {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Debug("main: Log level set to", "level", logLevel.String())
}
