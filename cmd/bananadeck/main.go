package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/alexanderramin/bananadeck/internal/cli"
	"github.com/alexanderramin/bananadeck/internal/config"
	"github.com/alexanderramin/bananadeck/internal/db"
	"github.com/alexanderramin/bananadeck/internal/gateway"
	"github.com/alexanderramin/bananadeck/internal/httpapi"
	"github.com/alexanderramin/bananadeck/internal/llm"
	"github.com/alexanderramin/bananadeck/internal/repository"
	"github.com/alexanderramin/bananadeck/internal/service"
)

// artifactRetention bounds how long rendered images are kept between runs.
const artifactRetention = 30 * 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)

	if err := cfg.LLM.Validate(); err != nil {
		return fmt.Errorf("model configuration: %w (set BANANADECK_LLM_API_KEY)", err)
	}
	style, err := cfg.ResolveStyle()
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	artifacts := repository.NewSQLiteArtifactRepo(database)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := llm.NewPrometheusObserver(registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	var observer llm.Observer = metrics
	if cfg.LLM.LogCalls {
		observer = llm.Observers(metrics, llm.NewLogObserver(logger))
	}

	client := llm.NewOpenAIClient(cfg.LLM, observer)
	gw := gateway.NewLLMGateway(client, artifacts, gateway.WithDefaultStyle(style))

	studio := service.NewStudioService(gw, logger, service.NewLogUseCaseObserver(logger))
	defer studio.Close()

	server, err := httpapi.NewServer(studio, artifacts,
		httpapi.WithLogger(logger),
		httpapi.WithRegistry(registry),
	)
	if err != nil {
		return err
	}

	app := &cli.App{
		Studio:      studio,
		DefaultAddr: cfg.Addr,
		Serve: func(ctx context.Context, addr string) error {
			pruned, err := artifacts.DeleteBefore(ctx, time.Now().Add(-artifactRetention))
			if err != nil {
				logger.Warn("artifact_prune_failed", "error", err)
			} else if pruned > 0 {
				logger.Info("artifacts_pruned", "count", pruned)
			}
			return server.ListenAndServe(ctx, addr)
		},
		IsInteractive: func() bool {
			fd := os.Stdout.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
		Out: os.Stdout,
		Err: os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
