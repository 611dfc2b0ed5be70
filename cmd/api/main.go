package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opc_crm_backend/internal/appointments"
	"opc_crm_backend/internal/audit"
	"opc_crm_backend/internal/dispatch"
	"opc_crm_backend/internal/duplicates"
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/http/router"
	"opc_crm_backend/internal/ingestion"
	"opc_crm_backend/internal/leads"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/personnel"
	"opc_crm_backend/internal/store/postgres"
	"opc_crm_backend/migrations"
	"opc_crm_backend/platform/config"
	"opc_crm_backend/platform/db"
	"opc_crm_backend/platform/logger"
	"opc_crm_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := db.RunMigrations(ctx, pool, migrations.FS); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	st := postgres.New(pool)
	engine := lifecycle.NewEngine(audit.NewLedger())
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	dispatchModule, err := dispatch.NewModule(st, cfg, log)
	if err != nil {
		log.Error("failed to initialize dispatch module", "error", err)
		panic("failed to initialize dispatch module: " + err.Error())
	}
	defer func() { _ = dispatchModule.Close() }()
	notifier := dispatchModule.Notifier

	leadsModule, err := leads.NewModule(st, engine, notifier, cfg.GetPhoneDefaultRegion(), val)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	appointmentsModule, err := appointments.NewModule(st, engine, notifier, val)
	if err != nil {
		log.Error("failed to initialize appointments module", "error", err)
		panic("failed to initialize appointments module: " + err.Error())
	}
	duplicatesModule := duplicates.NewModule(st, engine, val)
	ingestionModule, err := ingestion.NewModule(st, engine, duplicatesModule.Resolver, notifier, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize ingestion module", "error", err)
		panic("failed to initialize ingestion module: " + err.Error())
	}
	personnelModule, err := personnel.NewModule(st, val)
	if err != nil {
		log.Error("failed to initialize personnel module", "error", err)
		panic("failed to initialize personnel module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			leadsModule,
			appointmentsModule,
			duplicatesModule,
			ingestionModule,
			personnelModule,
			dispatchModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err, ok := <-srvErr:
		if ok && err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
