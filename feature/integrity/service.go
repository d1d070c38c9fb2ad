package integrity

import (
	"context"
	"errors"

	"salary-tracker/core/storage"
	"salary-tracker/feature/compensation/models"
	"salary-tracker/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoDatabase is returned by database checks when no connection is configured.
var ErrNoDatabase = errors.New("database not configured")

// Service handles integrity checks.
type Service struct {
	client   storage.Client
	bucket   string
	logger   *zap.Logger
	db       *gorm.DB
	lister   checks.ArchiveLister
	seriesID string
}

// NewService creates a new integrity service. db and lister may be nil; the
// checks that need them then report an error.
func NewService(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB, lister checks.ArchiveLister, seriesID string) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:   client,
		bucket:   bucket,
		logger:   logger.Named("integrity"),
		db:       db,
		lister:   lister,
		seriesID: seriesID,
	}
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	return checks.CheckStructure(ctx, s.client, s.bucket, checks.RequiredFolders)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckArchive inspects the archived payloads of seriesID, or of the default
// series when seriesID is empty.
func (s *Service) CheckArchive(ctx context.Context, seriesID string) (*checks.ArchiveReport, error) {
	if s.lister == nil {
		return nil, errors.New("series archive not configured")
	}
	if seriesID == "" {
		seriesID = s.seriesID
	}
	return checks.CheckArchive(ctx, s.client, s.bucket, s.lister, seriesID, s.logger)
}

// CheckServer compares the compensation table against its model.
func (s *Service) CheckServer() (*checks.ServerReport, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return checks.CheckServerIntegrity(s.db, &models.CompensationRecord{})
}
