package compensation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"salary-tracker/core/reconcile"
	"salary-tracker/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrTooManyRecords is returned when a batch exceeds the configured maximum.
var ErrTooManyRecords = errors.New("too many records in batch")

// ErrNoStorage is returned for object imports when no storage client is set.
var ErrNoStorage = errors.New("object storage is not configured")

// maxImportBytes bounds the size of a payroll export read from storage.
const maxImportBytes = 16 * 1024 * 1024

// Service reconciles payroll records for one owner at a time.
type Service struct {
	engine *reconcile.Engine
	store  *GormStore
	client storage.Client
	bucket string
	cfg    reconcile.Config
	logger *zap.Logger
	locks  *ownerLocks
}

// NewService creates a compensation service. client may be nil when object
// imports are not needed.
func NewService(engine *reconcile.Engine, store *GormStore, client storage.Client, bucket string, cfg reconcile.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine: engine,
		store:  store,
		client: client,
		bucket: bucket,
		cfg:    cfg,
		logger: logger,
		locks:  newOwnerLocks(),
	}
}

// Sync reconciles records for owner. Calls for the same owner run one at a time.
func (s *Service) Sync(ctx context.Context, owner string, records []reconcile.ProviderRecord, opts reconcile.Options) (reconcile.Result, error) {
	if s.cfg.MaxBatch > 0 && len(records) > s.cfg.MaxBatch {
		return reconcile.Result{}, fmt.Errorf("%w: %d > %d", ErrTooManyRecords, len(records), s.cfg.MaxBatch)
	}

	unlock := s.locks.Lock(strings.TrimSpace(owner))
	defer unlock()

	return s.engine.Reconcile(ctx, owner, records, opts)
}

// SyncObject reads a payroll export from storage and reconciles it for owner.
// Relative names are resolved under the configured import prefix.
func (s *Service) SyncObject(ctx context.Context, owner, object string, opts reconcile.Options) (reconcile.Result, error) {
	records, err := s.LoadObject(ctx, object)
	if err != nil {
		return reconcile.Result{}, err
	}
	return s.Sync(ctx, owner, records, opts)
}

// LoadObject downloads and decodes a payroll export.
func (s *Service) LoadObject(ctx context.Context, object string) ([]reconcile.ProviderRecord, error) {
	if s.client == nil {
		return nil, ErrNoStorage
	}

	name := s.objectName(object)
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxImportBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	records, err := DecodeImport(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Debug("Loaded payroll export", zap.String("object", name), zap.Int("records", len(records)))
	return records, nil
}

// Status reports the import state of owner.
func (s *Service) Status(ctx context.Context, owner string, conn *reconcile.Connection) (reconcile.Status, error) {
	return s.engine.SyncStatus(ctx, owner, conn)
}

// List returns the stored records of owner from the engine's source, or from
// every source when all is set.
func (s *Service) List(ctx context.Context, owner string, all bool) ([]reconcile.Record, error) {
	source := s.engine.Source()
	if all {
		source = ""
	}
	return s.store.List(ctx, strings.TrimSpace(owner), source)
}

func (s *Service) objectName(object string) string {
	object = strings.TrimPrefix(strings.TrimSpace(object), "/")
	prefix := s.cfg.ImportPrefix
	if prefix == "" || strings.HasPrefix(object, prefix) {
		return object
	}
	return strings.TrimSuffix(prefix, "/") + "/" + object
}
