package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidAmount marks records whose amount is missing, non-numeric or not positive.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidDate marks records whose effective date cannot be parsed.
	ErrInvalidDate = errors.New("invalid effective date")
	// ErrMissingOwner is returned when no owner is given.
	ErrMissingOwner = errors.New("owner id is required")
	// ErrCommit wraps any failure that rolled a batch back.
	ErrCommit = errors.New("reconcile batch rolled back")

	errDryRun = errors.New("dry run")
)

// Recorder receives reconciliation telemetry. A nil Recorder is ignored.
type Recorder interface {
	ObserveReconcile(outcome string, n int)
}

// Engine reconciles provider records into a Store.
type Engine struct {
	store   Store
	source  string
	now     func() time.Time
	logger  *zap.Logger
	metrics Recorder
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithSource sets the source tag written on imported records.
func WithSource(source string) EngineOption {
	return func(e *Engine) {
		if source != "" {
			e.source = source
		}
	}
}

// WithClock replaces the engine's clock.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithRecorder attaches a telemetry recorder.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.metrics = r }
}

// NewEngine creates an engine over store.
func NewEngine(store Store, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		store:  store,
		source: DefaultSource,
		now:    time.Now,
		logger: logger.Named("reconcile"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Source returns the source tag of imported records.
func (e *Engine) Source() string {
	return e.source
}

// Convert turns one provider record into a Record owned by ownerID.
func (e *Engine) Convert(ownerID string, in ProviderRecord, opts Options) (Record, error) {
	amount, err := in.Amount.Decimal()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if !amount.IsPositive() {
		return Record{}, fmt.Errorf("%w: %s is not positive", ErrInvalidAmount, amount)
	}

	effective, err := e.effectiveDate(in.EffectiveDate)
	if err != nil {
		return Record{}, err
	}

	var title string
	if in.JobTitle != nil {
		title = strings.TrimSpace(*in.JobTitle)
	}

	return Record{
		OwnerID:       ownerID,
		Amount:        amount,
		Frequency:     ParseFrequency(in.PaymentUnit),
		EffectiveDate: effective,
		Source:        e.source,
		Verified:      true,
		Company:       opts.Company,
		JobTitle:      title,
		Location:      opts.Location,
		Notes:         "Synced from " + e.source,
	}, nil
}

// Reconcile merges incoming into the store for ownerID.
//
// Conversion failures are counted as skipped and never roll the batch back.
// A store failure or failed commit rolls everything back and returns a zero
// Result with an error wrapping ErrCommit.
func (e *Engine) Reconcile(ctx context.Context, ownerID string, incoming []ProviderRecord, opts Options) (Result, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Result{}, ErrMissingOwner
	}

	l := e.logger.With(zap.String("owner", ownerID), zap.Bool("overwrite", opts.Overwrite))

	type pending struct {
		index  int
		record Record
	}

	var (
		converted []pending
		rejected  []Action
	)
	for i, in := range incoming {
		rec, err := e.Convert(ownerID, in, opts)
		if err != nil {
			l.Debug("Skipping incoming record", zap.Int("index", i), zap.Error(err))
			rejected = append(rejected, Action{Type: ActionSkip, Index: i, Reason: err.Error()})
			continue
		}
		converted = append(converted, pending{index: i, record: rec})
	}

	var result Result
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		result = Result{Skipped: len(rejected), Actions: append([]Action(nil), rejected...)}

		for _, p := range converted {
			rec := p.record
			key := rec.Key()

			existing, err := tx.FindByNaturalKey(ctx, key)
			if err != nil {
				return fmt.Errorf("find %s: %w", key, err)
			}

			switch {
			case existing == nil:
				if err := tx.Insert(ctx, &rec); err != nil {
					return fmt.Errorf("insert %s: %w", key, err)
				}
				result.Created++
				result.Actions = append(result.Actions, Action{Type: ActionCreate, Index: p.index, Key: key.String()})
			case opts.Overwrite:
				existing.overwriteFrom(rec)
				if err := tx.Update(ctx, existing); err != nil {
					return fmt.Errorf("update %s: %w", key, err)
				}
				result.Updated++
				result.Actions = append(result.Actions, Action{Type: ActionUpdate, Index: p.index, Key: key.String()})
			default:
				result.Skipped++
				result.Actions = append(result.Actions, Action{Type: ActionSkip, Index: p.index, Key: key.String(), Reason: "already exists"})
			}
		}

		if opts.DryRun {
			return errDryRun
		}
		return nil
	})

	if errors.Is(err, errDryRun) {
		result.DryRun = true
		err = nil
	}
	if err != nil {
		l.Error("Reconcile batch rolled back", zap.Int("incoming", len(incoming)), zap.Error(err))
		e.observe("failed", 1)
		return Result{}, fmt.Errorf("%w: %w", ErrCommit, err)
	}

	l.Info("Reconcile batch applied",
		zap.Int("incoming", len(incoming)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Bool("dry_run", result.DryRun))

	if !result.DryRun {
		e.observe("created", result.Created)
		e.observe("updated", result.Updated)
		e.observe("skipped", result.Skipped)
	}

	return result, nil
}

// SyncStatus reports the import state for ownerID. It echoes conn and performs
// no network I/O.
func (e *Engine) SyncStatus(ctx context.Context, ownerID string, conn *Connection) (Status, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Status{}, ErrMissingOwner
	}

	summary, err := e.store.Summary(ctx, ownerID, e.source)
	if err != nil {
		return Status{}, fmt.Errorf("load sync summary: %w", err)
	}

	status := Status{
		OwnerID:      ownerID,
		Source:       e.source,
		HasRecords:   summary.Count > 0,
		RecordCount:  summary.Count,
		LastSyncedAt: summary.LatestCreatedAt,
	}

	if conn != nil {
		status.Provider = conn.Provider
		status.ConnectionExpiresAt = conn.ExpiresAt
		status.ConnectionLastUsedAt = conn.LastUsedAt
		status.Connected = conn.ExpiresAt == nil || conn.ExpiresAt.After(e.now())
	}

	return status, nil
}

func (e *Engine) effectiveDate(raw *string) (time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return dateOf(e.now().UTC()), nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return dateOf(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (e *Engine) observe(outcome string, n int) {
	if e.metrics != nil && n > 0 {
		e.metrics.ObserveReconcile(outcome, n)
	}
}

// dateOf truncates t to midnight UTC of its calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
