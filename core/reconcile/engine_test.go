package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newTestEngine(store Store) *Engine {
	return NewEngine(store, zap.NewNop(), WithClock(func() time.Time { return fixedNow }))
}

func incoming(amount, unit, date string) ProviderRecord {
	return ProviderRecord{
		Amount:        AmountOf(amount),
		PaymentUnit:   unit,
		EffectiveDate: strPtr(date),
		JobTitle:      strPtr("Engineer"),
	}
}

func key(owner, date string) NaturalKey {
	d, _ := time.Parse(time.DateOnly, date)
	return NaturalKey{OwnerID: owner, EffectiveDate: d, Source: DefaultSource}
}

func TestReconcile_IdempotentSkip(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store)
	batch := []ProviderRecord{incoming("120000", "per_year", "2024-01-01")}

	first, err := engine.Reconcile(context.Background(), "user-1", batch, Options{Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 0, first.Skipped)

	second, err := engine.Reconcile(context.Background(), "user-1", batch, Options{Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 1, second.Skipped)

	assert.Equal(t, 1, store.len())
}

func TestReconcile_OverwriteUpdatesInPlace(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store)

	_, err := engine.Reconcile(context.Background(), "user-1", []ProviderRecord{incoming("120000", "per_year", "2024-01-01")}, Options{Company: "Acme"})
	require.NoError(t, err)
	before, ok := store.get(key("user-1", "2024-01-01"))
	require.True(t, ok)

	res, err := engine.Reconcile(context.Background(), "user-1", []ProviderRecord{incoming("130000.50", "annually", "2024-01-01")}, Options{Overwrite: true, Company: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1, Actions: []Action{{Type: ActionUpdate, Index: 0, Key: key("user-1", "2024-01-01").String()}}}, res)

	after, ok := store.get(key("user-1", "2024-01-01"))
	require.True(t, ok)
	assert.Equal(t, "130000.5", after.Amount.String())
	assert.Equal(t, "Acme Corp", after.Company)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, 1, store.len())
}

func TestReconcile_InvalidAmountsAreSkipped(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store)

	batch := []ProviderRecord{
		{PaymentUnit: "per_year", EffectiveDate: strPtr("2024-01-01")},
		incoming("abc", "per_year", "2024-02-01"),
		incoming("0", "per_year", "2024-03-01"),
		incoming("-10", "per_year", "2024-04-01"),
		incoming("5000", "per_month", "2024-05-01"),
		incoming("5000", "per_month", "not-a-date"),
	}

	res, err := engine.Reconcile(context.Background(), "user-1", batch, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 5, res.Skipped)
	assert.Equal(t, 1, store.len())

	rec, ok := store.get(key("user-1", "2024-05-01"))
	require.True(t, ok)
	assert.Equal(t, FrequencyMonthly, rec.Frequency)
	assert.True(t, rec.Verified)
	assert.Equal(t, "Engineer", rec.JobTitle)
	assert.Equal(t, DefaultSource, rec.Source)
}

func TestReconcile_CommitFailureRollsBack(t *testing.T) {
	store := newMemStore()
	store.commitErr = errors.New("deadlock")
	engine := newTestEngine(store)

	res, err := engine.Reconcile(context.Background(), "user-1", []ProviderRecord{
		incoming("100", "per_hour", "2024-01-01"),
		incoming("bad", "per_hour", "2024-01-02"),
	}, Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommit)
	assert.Contains(t, err.Error(), "deadlock")
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 0, store.len())
}

func TestReconcile_StoreErrorAbortsWholeBatch(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("disk full")
	engine := newTestEngine(store)

	res, err := engine.Reconcile(context.Background(), "user-1", []ProviderRecord{
		incoming("100", "per_year", "2024-01-01"),
		incoming("200", "per_year", "2024-02-01"),
	}, Options{})

	assert.ErrorIs(t, err, ErrCommit)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 0, store.len())
}

func TestReconcile_DryRunLeavesStoreUntouched(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store)

	res, err := engine.Reconcile(context.Background(), "user-1", []ProviderRecord{
		incoming("100", "per_year", "2024-01-01"),
		incoming("100", "per_year", "2024-01-01"),
	}, Options{DryRun: true})

	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, store.len())
}

func TestReconcile_DuplicateKeysWithinBatch(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store)

	res, err := engine.Reconcile(context.Background(), "user-1", []ProviderRecord{
		incoming("100", "per_year", "2024-01-01"),
		incoming("150", "per_year", "2024-01-01"),
	}, Options{Overwrite: true})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	rec, _ := store.get(key("user-1", "2024-01-01"))
	assert.Equal(t, "150", rec.Amount.String())
}

func TestReconcile_MissingEffectiveDateUsesToday(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store)

	_, err := engine.Reconcile(context.Background(), "user-1", []ProviderRecord{
		{Amount: AmountOf("42"), PaymentUnit: "per_hour"},
	}, Options{})
	require.NoError(t, err)

	_, ok := store.get(key("user-1", "2024-03-15"))
	assert.True(t, ok)
}

func TestReconcile_MissingEffectiveDateUsesUTCDate(t *testing.T) {
	store := newMemStore()
	// 2024-06-01 20:00 at UTC-10 is already 2024-06-02 in UTC.
	local := time.Date(2024, 6, 1, 20, 0, 0, 0, time.FixedZone("HST", -10*60*60))
	engine := NewEngine(store, zap.NewNop(), WithClock(func() time.Time { return local }))

	_, err := engine.Reconcile(context.Background(), "user-1", []ProviderRecord{
		{Amount: AmountOf("42"), PaymentUnit: "per_hour"},
	}, Options{})
	require.NoError(t, err)

	_, ok := store.get(key("user-1", "2024-06-02"))
	assert.True(t, ok)
	_, ok = store.get(key("user-1", "2024-06-01"))
	assert.False(t, ok)
}

func TestReconcile_RequiresOwner(t *testing.T) {
	engine := newTestEngine(newMemStore())
	_, err := engine.Reconcile(context.Background(), " ", nil, Options{})
	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestParseFrequency(t *testing.T) {
	tests := map[string]Frequency{
		"per_year":  FrequencyYearly,
		"annually":  FrequencyYearly,
		"PER_MONTH": FrequencyMonthly,
		"monthly":   FrequencyMonthly,
		"per_week":  FrequencyWeekly,
		"weekly":    FrequencyWeekly,
		"per_hour":  FrequencyHourly,
		"hourly":    FrequencyHourly,
		"fortnight": FrequencyYearly,
		"":          FrequencyYearly,
	}
	for unit, want := range tests {
		assert.Equal(t, want, ParseFrequency(unit), unit)
	}
	assert.True(t, FrequencyHourly.Valid())
	assert.False(t, Frequency("daily").Valid())
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	var recs []ProviderRecord
	err := json.Unmarshal([]byte(`[
		{"amount": "85000.00", "payment_unit": "per_year"},
		{"amount": 42.5, "payment_unit": "per_hour"},
		{"amount": null},
		{"amount": true},
		{}
	]`), &recs)
	require.NoError(t, err)
	require.Len(t, recs, 5)

	d, err := recs[0].Amount.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "85000", d.String())

	d, err = recs[1].Amount.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "42.5", d.String())

	for _, r := range recs[2:] {
		_, err := r.Amount.Decimal()
		assert.Error(t, err)
	}
	assert.False(t, recs[4].Amount.IsSet())
}

func TestSyncStatus(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	status, err := engine.SyncStatus(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.False(t, status.HasRecords)
	assert.Nil(t, status.LastSyncedAt)
	assert.False(t, status.Connected)

	_, err = engine.Reconcile(ctx, "user-1", []ProviderRecord{
		incoming("100", "per_year", "2023-01-01"),
		incoming("110", "per_year", "2024-01-01"),
	}, Options{})
	require.NoError(t, err)

	expires := fixedNow.Add(24 * time.Hour)
	used := fixedNow.Add(-time.Hour)
	status, err = engine.SyncStatus(ctx, "user-1", &Connection{Provider: "finch", ExpiresAt: &expires, LastUsedAt: &used})
	require.NoError(t, err)
	assert.True(t, status.HasRecords)
	assert.Equal(t, int64(2), status.RecordCount)
	require.NotNil(t, status.LastSyncedAt)
	assert.Equal(t, store.now.Add(2*time.Minute), *status.LastSyncedAt)
	assert.True(t, status.Connected)
	assert.Equal(t, &expires, status.ConnectionExpiresAt)
	assert.Equal(t, &used, status.ConnectionLastUsedAt)

	expired := fixedNow.Add(-time.Minute)
	status, err = engine.SyncStatus(ctx, "user-1", &Connection{ExpiresAt: &expired})
	require.NoError(t, err)
	assert.False(t, status.Connected)

	other, err := engine.SyncStatus(ctx, "user-2", nil)
	require.NoError(t, err)
	assert.False(t, other.HasRecords)
}
