package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/term"

	"github.com/obsidiansystems/hw-app-kda/internal/config"
	"github.com/obsidiansystems/hw-app-kda/pkg/log"
)

func main() {
	var logConf log.Config
	if err := cleanenv.ReadEnv(&logConf); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read log configuration: %s\n", err.Error())
		os.Exit(1)
	}
	logger := log.NewZapLogger(logConf).WithName("kda-ledger")

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}
	// .env may have changed the log settings.
	if cfg.Log != logConf {
		logger = log.NewZapLogger(cfg.Log).WithName("kda-ledger")
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise", "error", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsServer := app.MetricsServer()
		go func() {
			logger.Info("Prometheus metrics available", "listenAddr", cfg.MetricsAddr, "endpoint", metricsEndpoint)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failure", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shut down metrics server", "error", err)
			}
		}()
	}

	if len(os.Args) > 1 {
		if err := app.Run(ctx, os.Args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
			stop()
			app.Close()
			os.Exit(1)
		}
		return
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		printUsage(os.Stderr)
		return
	}
	runPrompt(ctx, app)
}
