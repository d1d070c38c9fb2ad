package cmd

import (
	"fmt"

	"salary-tracker/core/bls"
	"salary-tracker/core/config"
	"salary-tracker/core/database"
	"salary-tracker/core/logger"
	"salary-tracker/core/metrics"
	"salary-tracker/core/reconcile"
	"salary-tracker/core/storage"
	"salary-tracker/feature/compensation"
	"salary-tracker/feature/inflation"
	"salary-tracker/feature/integrity"
	"salary-tracker/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	store   storage.Client
	metrics *metrics.Manager

	client       *bls.Client
	archiver     *inflation.Archiver
	inflation    *inflation.Service
	compensation *compensation.Service
	integrity    *integrity.Service
}

// bootstrap loads configuration and wires every service. The database and
// object storage are optional: a failure is logged and the dependent
// features stay disabled.
func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logg}

	if conn, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional database connection failed", zap.Error(err))
	} else {
		a.db = conn
		logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	}

	if client, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Optional storage client failed", zap.Error(err))
	} else {
		a.store = client
	}

	opts := []metrics.Option{metrics.WithNamespace(cfg.Metrics.Namespace)}
	if cfg.Metrics.Enabled {
		opts = append(opts, metrics.WithRuntimeCollectors())
	}
	a.metrics = metrics.NewManager(opts...)

	a.client = bls.NewClient(cfg.BLS, logg, bls.WithRecorder(a.metrics))

	inflationOpts := []inflation.Option{inflation.WithRecorder(a.metrics)}
	if a.store != nil {
		a.archiver = inflation.NewArchiver(a.store, cfg.Storage.Bucket)
		if cfg.Inflation.Archive {
			inflationOpts = append(inflationOpts, inflation.WithArchiver(a.archiver))
		}
	}
	a.inflation = inflation.NewService(a.client, cfg.Inflation, cfg.BLS.MaxYearSpan(), logg, inflationOpts...)

	gormStore := compensation.NewGormStore(a.db)
	engine := reconcile.NewEngine(gormStore, logg,
		reconcile.WithSource(cfg.Sync.Source),
		reconcile.WithRecorder(a.metrics))
	a.compensation = compensation.NewService(engine, gormStore, a.store, cfg.Storage.Bucket, cfg.Sync, logg)

	var lister checks.ArchiveLister
	if a.archiver != nil {
		lister = a.archiver
	}
	a.integrity = integrity.NewService(a.store, cfg.Storage.Bucket, logg, a.db, lister, a.inflation.SeriesID(""))

	return a, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
