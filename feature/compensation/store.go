package compensation

import (
	"context"
	"errors"
	"fmt"

	"salary-tracker/core/reconcile"
	"salary-tracker/feature/compensation/models"

	"gorm.io/gorm"
)

// GormStore persists compensation records through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// WithinTx runs fn inside a database transaction.
func (s *GormStore) WithinTx(ctx context.Context, fn func(tx reconcile.Tx) error) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

// Summary counts an owner's records from source and finds the newest one.
func (s *GormStore) Summary(ctx context.Context, ownerID, source string) (reconcile.Summary, error) {
	if s.db == nil {
		return reconcile.Summary{}, fmt.Errorf("database connection is nil")
	}

	var summary reconcile.Summary
	q := s.db.WithContext(ctx).Model(&models.CompensationRecord{}).
		Where("owner_id = ? AND source = ?", ownerID, source)
	if err := q.Count(&summary.Count).Error; err != nil {
		return reconcile.Summary{}, fmt.Errorf("count records: %w", err)
	}
	if summary.Count == 0 {
		return summary, nil
	}

	var latest models.CompensationRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND source = ?", ownerID, source).
		Order("created_at DESC").
		First(&latest).Error
	if err != nil {
		return reconcile.Summary{}, fmt.Errorf("find latest record: %w", err)
	}
	created := latest.CreatedAt.UTC()
	summary.LatestCreatedAt = &created
	return summary, nil
}

// List returns an owner's records, newest effective date first. An empty
// source matches every source.
func (s *GormStore) List(ctx context.Context, ownerID, source string) ([]reconcile.Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if source != "" {
		q = q.Where("source = ?", source)
	}

	var rows []models.CompensationRecord
	if err := q.Order("effective_date DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]reconcile.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToRecord())
	}
	return out, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) FindByNaturalKey(ctx context.Context, key reconcile.NaturalKey) (*reconcile.Record, error) {
	var row models.CompensationRecord
	err := t.db.WithContext(ctx).
		Where("owner_id = ? AND effective_date = ? AND source = ?", key.OwnerID, key.EffectiveDate, key.Source).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := row.ToRecord()
	return &rec, nil
}

func (t *gormTx) Insert(ctx context.Context, r *reconcile.Record) error {
	row := models.FromRecord(*r)
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	r.ID = row.ID
	r.CreatedAt = row.CreatedAt
	r.UpdatedAt = row.UpdatedAt
	return nil
}

func (t *gormTx) Update(ctx context.Context, r *reconcile.Record) error {
	if r.ID == "" {
		return fmt.Errorf("update record without id")
	}
	row := models.FromRecord(*r)
	return t.db.WithContext(ctx).Model(&models.CompensationRecord{ID: r.ID}).Updates(map[string]any{
		"amount":    row.Amount,
		"frequency": row.Frequency,
		"company":   row.Company,
		"job_title": row.JobTitle,
		"location":  row.Location,
		"notes":     row.Notes,
	}).Error
}
