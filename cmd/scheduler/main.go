package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/technician-marketplace/internal/app/scheduler"
	"github.com/magabrotheeeer/technician-marketplace/internal/config"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
)

func main() {
	once := flag.Bool("once", false, "run a single reminder pass and exit")
	flag.Parse()

	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env)
	logger.Info("starting scheduler", slog.String("env", cfg.Env), slog.String("cron_spec", cfg.CronSpec))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := scheduler.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize scheduler", sl.Err(err))
		os.Exit(1)
	}

	if *once {
		sent, err := app.RunOnce(ctx)
		if err != nil {
			logger.Error("reminder pass finished with errors", slog.Int("sent", sent), sl.Err(err))
			os.Exit(1)
		}
		logger.Info("reminder pass finished", slog.Int("sent", sent))
		return
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("scheduler stopped with error", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("scheduler stopped gracefully")
}
