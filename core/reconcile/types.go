package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSource tags records imported from the payroll provider.
const DefaultSource = "payroll-provider"

// Frequency is the pay period an amount refers to.
type Frequency string

const (
	FrequencyYearly  Frequency = "yearly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyHourly  Frequency = "hourly"
)

// ParseFrequency maps a provider payment unit onto a Frequency.
// Unknown units default to yearly.
func ParseFrequency(unit string) Frequency {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "per_month", "monthly", "month":
		return FrequencyMonthly
	case "per_week", "weekly", "week":
		return FrequencyWeekly
	case "per_hour", "hourly", "hour":
		return FrequencyHourly
	default:
		return FrequencyYearly
	}
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyYearly, FrequencyMonthly, FrequencyWeekly, FrequencyHourly:
		return true
	}
	return false
}

// NaturalKey identifies a record independently of its generated ID.
type NaturalKey struct {
	OwnerID       string    `json:"owner_id"`
	EffectiveDate time.Time `json:"effective_date"`
	Source        string    `json:"source"`
}

func (k NaturalKey) String() string {
	return k.OwnerID + "|" + k.EffectiveDate.Format(time.DateOnly) + "|" + k.Source
}

// Record is a stored compensation record.
type Record struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Amount        decimal.Decimal `json:"amount"`
	Frequency     Frequency       `json:"frequency"`
	EffectiveDate time.Time       `json:"effective_date"`
	Source        string          `json:"source"`
	Verified      bool            `json:"verified"`
	Company       string          `json:"company"`
	JobTitle      string          `json:"job_title"`
	Location      string          `json:"location"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Key returns the record's natural key.
func (r Record) Key() NaturalKey {
	return NaturalKey{OwnerID: r.OwnerID, EffectiveDate: r.EffectiveDate, Source: r.Source}
}

// overwriteFrom copies the financial and descriptive fields of in onto r.
func (r *Record) overwriteFrom(in Record) {
	r.Amount = in.Amount
	r.Frequency = in.Frequency
	r.Company = in.Company
	r.JobTitle = in.JobTitle
	r.Location = in.Location
	r.Notes = in.Notes
}

// Amount is a provider amount that may arrive as a JSON string or number.
// Decoding never fails; validity is checked by Decimal.
type Amount struct {
	raw string
	set bool
}

// AmountOf builds an Amount from its textual form.
func AmountOf(s string) Amount {
	return Amount{raw: s, set: true}
}

// IsSet reports whether an amount was present.
func (a Amount) IsSet() bool {
	return a.set
}

// Decimal parses the amount.
func (a Amount) Decimal() (decimal.Decimal, error) {
	if !a.set || strings.TrimSpace(a.raw) == "" {
		return decimal.Zero, errors.New("amount is missing")
	}
	return decimal.NewFromString(strings.TrimSpace(a.raw))
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			*a = AmountOf(string(b))
			return nil
		}
		*a = AmountOf(s)
		return nil
	}
	*a = AmountOf(string(b))
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return json.Marshal(a.raw)
}

// ProviderRecord is a compensation record as delivered by the payroll provider.
type ProviderRecord struct {
	Amount        Amount  `json:"amount"`
	PaymentUnit   string  `json:"payment_unit"`
	EffectiveDate *string `json:"effective_date,omitempty"`
	JobTitle      *string `json:"job_title,omitempty"`
}

// Options controls a reconciliation batch.
type Options struct {
	// Overwrite updates existing records instead of skipping them.
	Overwrite bool
	// DryRun computes the result and rolls the batch back.
	DryRun bool
	// Company and Location describe the employer context of the batch.
	Company  string
	Location string
}

// ActionType is what happened to one incoming record.
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionSkip   ActionType = "skip"
)

// Action records the outcome for one incoming record.
type Action struct {
	Type   ActionType `json:"type"`
	Index  int        `json:"index"`
	Key    string     `json:"key,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

// Result aggregates the outcome of a batch.
type Result struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	DryRun  bool     `json:"dry_run,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// Connection is upstream connection metadata supplied by the caller.
type Connection struct {
	Provider   string     `json:"provider,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Summary is what the store knows about an owner's imported records.
type Summary struct {
	Count           int64
	LatestCreatedAt *time.Time
}

// Status reports the import state for one owner.
type Status struct {
	OwnerID              string     `json:"owner_id"`
	Source               string     `json:"source"`
	HasRecords           bool       `json:"has_records"`
	RecordCount          int64      `json:"record_count"`
	LastSyncedAt         *time.Time `json:"last_synced_at"`
	Connected            bool       `json:"connected"`
	Provider             string     `json:"provider,omitempty"`
	ConnectionExpiresAt  *time.Time `json:"connection_expires_at"`
	ConnectionLastUsedAt *time.Time `json:"connection_last_used_at"`
}
