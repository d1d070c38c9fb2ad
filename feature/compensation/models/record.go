package models

import (
	"time"

	"salary-tracker/core/reconcile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TableName of compensation records.
const TableName = "compensation_records"

// CompensationRecord is the persisted form of reconcile.Record.
// The natural key (owner, effective date, source) carries a unique index.
type CompensationRecord struct {
	ID            string          `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	OwnerID       string          `gorm:"column:owner_id;type:varchar(64);not null;uniqueIndex:idx_compensation_natural_key,priority:1" json:"owner_id"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(14,2);not null" json:"amount"`
	Frequency     string          `gorm:"column:frequency;type:varchar(16);not null;default:yearly" json:"frequency"`
	EffectiveDate time.Time       `gorm:"column:effective_date;type:date;not null;uniqueIndex:idx_compensation_natural_key,priority:2" json:"effective_date"`
	Source        string          `gorm:"column:source;type:varchar(64);not null;uniqueIndex:idx_compensation_natural_key,priority:3;index:idx_compensation_source" json:"source"`
	Verified      bool            `gorm:"column:verified;not null;default:false" json:"verified"`
	Company       string          `gorm:"column:company;type:varchar(255)" json:"company"`
	JobTitle      string          `gorm:"column:job_title;type:varchar(255)" json:"job_title"`
	Location      string          `gorm:"column:location;type:varchar(255)" json:"location"`
	Notes         string          `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"column:created_at;index:idx_compensation_source" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name used by CompensationRecord.
func (CompensationRecord) TableName() string {
	return TableName
}

// BeforeCreate assigns a UUID when the record has none.
func (r *CompensationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// FromRecord converts a domain record into its persisted form.
func FromRecord(r reconcile.Record) CompensationRecord {
	return CompensationRecord{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Amount:        r.Amount,
		Frequency:     string(r.Frequency),
		EffectiveDate: r.EffectiveDate,
		Source:        r.Source,
		Verified:      r.Verified,
		Company:       r.Company,
		JobTitle:      r.JobTitle,
		Location:      r.Location,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ToRecord converts the persisted form back into a domain record.
func (m CompensationRecord) ToRecord() reconcile.Record {
	y, mo, d := m.EffectiveDate.Date()
	return reconcile.Record{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Amount:        m.Amount,
		Frequency:     reconcile.Frequency(m.Frequency),
		EffectiveDate: time.Date(y, mo, d, 0, 0, 0, 0, time.UTC),
		Source:        m.Source,
		Verified:      m.Verified,
		Company:       m.Company,
		JobTitle:      m.JobTitle,
		Location:      m.Location,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
