package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opc_crm_backend/internal/dispatch"
	"opc_crm_backend/internal/obs"
	"opc_crm_backend/internal/scheduler"
	"opc_crm_backend/internal/store/postgres"
	"opc_crm_backend/platform/config"
	"opc_crm_backend/platform/db"
	"opc_crm_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	dispatchModule, err := dispatch.NewModule(postgres.New(pool), cfg, log)
	if err != nil {
		log.Error("failed to initialize dispatch module", "error", err)
		panic("failed to initialize dispatch module: " + err.Error())
	}
	defer func() { _ = dispatchModule.Close() }()

	worker, err := scheduler.NewWorker(cfg, dispatchModule.Service, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	obs.Init()
	metrics := &http.Server{
		Addr:              cfg.GetWorkerMetricsAddr(),
		Handler:           obs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("worker metrics listening", "addr", metrics.Addr)
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metrics.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}
	log.Info("scheduler stopped")
}
