package main

import (
	"log"

	"github.com/induohouse/induoweb/internal/backend"
	"github.com/induohouse/induoweb/internal/config"
	"github.com/induohouse/induoweb/internal/kvstore/kvopen"
	"github.com/induohouse/induoweb/internal/logging"
	"github.com/induohouse/induoweb/internal/metrics"
	"github.com/induohouse/induoweb/internal/service"
	"github.com/induohouse/induoweb/internal/web"
	"github.com/induohouse/induoweb/internal/web/templates"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	kv, closeKV, err := kvopen.Open(cfg)
	if err != nil {
		logger.Error("failed to open favorites store", "backend", cfg.FavoritesBackend, "error", err)
		return
	}
	defer func() {
		if err := closeKV(); err != nil {
			logger.Error("failed to close favorites store", "error", err)
		}
	}()
	logger.Info("favorites store ready", "backend", cfg.FavoritesBackend, "test_mode", cfg.TestMode)

	m := metrics.NewManager("induoweb")
	api := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithObserver(m.ObserveBackend),
	)

	catalog := service.NewCatalogService(api, kv, m, logger)
	visitors := service.NewVisitors(cfg.VisitorCacheSize, cfg.VisitorTTL, catalog.NewVisitor, catalog.Forget)
	visitors.OnCount(m.SetVisitors)

	server := web.NewServer(catalog, visitors, templates.FS, logger,
		web.WithMetrics(m),
		web.WithPageSize(cfg.PageSize),
	)

	logger.Info("using backend", "url", cfg.BackendURL, "timeout", cfg.BackendTimeout)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
