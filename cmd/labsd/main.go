package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/labs-tracker/internal/common"
	"github.com/joseph-ayodele/labs-tracker/internal/export"
	"github.com/joseph-ayodele/labs-tracker/internal/pipeline"
	"github.com/joseph-ayodele/labs-tracker/internal/server"
	"github.com/joseph-ayodele/labs-tracker/internal/services/labs"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	proc := pipeline.NewFromConfig(cfg, logger)
	labsSvc := labs.NewService(proc, logger, labs.WithStore(store, store))
	exportSvc := export.NewService(store, store, logger)

	httpSrv := server.NewServer(cfg, server.Deps{
		Labs:     labsSvc,
		Export:   exportSvc,
		Store:    store,
		Metrics:  server.NewMetrics(reg),
		Gatherer: reg,
	}, logger)
	healthSrv := server.NewHealthServer(store, 15*time.Second, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	g.Go(func() error {
		if cfg.Server.GRPCHealthAddr == "" {
			return nil
		}
		return healthSrv.Serve(gctx, cfg.Server.GRPCHealthAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
