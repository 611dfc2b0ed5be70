// Package ingestion provides bulk lead import from csv and xlsx files.
package ingestion

import (
	"context"
	"time"

	"opc_crm_backend/internal/adapters/storage"
	dupservice "opc_crm_backend/internal/duplicates/service"
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/ingestion/handler"
	"opc_crm_backend/internal/ingestion/service"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/config"
	"opc_crm_backend/platform/logger"
	"opc_crm_backend/platform/validator"
)

// Config combines the settings the module reads.
type Config interface {
	config.IngestionConfig
	config.StorageConfig
}

// Module is the ingestion module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	Importer *service.Importer
}

// NewModule wires the importer and, when MinIO is configured, the upload archive.
func NewModule(st store.Store, engine *lifecycle.Engine, resolver *dupservice.Resolver, notifier lifecycle.VisitNotifier, val *validator.Validator, cfg Config, log *logger.Logger) (*Module, error) {
	var archiver service.Archiver
	if cfg.IsMinIOEnabled() {
		minio, err := storage.NewMinIOService(cfg)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := minio.EnsureBucketExists(ctx, cfg.GetMinIOImportBucket()); err != nil {
			log.Warn("import archive bucket unavailable", "bucket", cfg.GetMinIOImportBucket(), "error", err)
		}
		archiver = service.NewObjectArchiver(minio, cfg.GetMinIOImportBucket())
	}

	importer := service.New(st, engine, resolver, notifier, archiver, val, log, service.Options{
		Region:  cfg.GetPhoneDefaultRegion(),
		MaxRows: cfg.GetImportMaxRows(),
	})
	return &Module{
		handler:  handler.New(importer, val, cfg.GetImportMaxFileSize()),
		Importer: importer,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "ingestion"
}

// RegisterRoutes mounts POST /api/v1/leads/import behind the upload rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/leads/import", ctx.ImportRateLimiter.RateLimit(), m.handler.Import)
}

var _ apphttp.Module = (*Module)(nil)
