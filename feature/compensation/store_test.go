package compensation

import (
	"context"
	"errors"
	"testing"
	"time"

	"salary-tracker/core/database"
	"salary-tracker/core/reconcile"
	"salary-tracker/feature/compensation/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &models.CompensationRecord{}))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func newEngine(store reconcile.Store) *reconcile.Engine {
	return reconcile.NewEngine(store, nil, reconcile.WithClock(func() time.Time { return testNow }))
}

func strPtr(s string) *string { return &s }

func providerRecord(amount, unit, date string) reconcile.ProviderRecord {
	return reconcile.ProviderRecord{Amount: reconcile.AmountOf(amount), PaymentUnit: unit, EffectiveDate: strPtr(date)}
}

func TestGormStore_Reconcile(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupSQLite(t))
	engine := newEngine(store)

	incoming := []reconcile.ProviderRecord{
		providerRecord("120000", "per_year", "2024-01-15"),
		providerRecord("10000", "per_month", "2023-01-15"),
	}

	res, err := engine.Reconcile(ctx, "u1", incoming, reconcile.Options{Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	res, err = engine.Reconcile(ctx, "u1", incoming, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Skipped)

	records, err := store.List(ctx, "u1", reconcile.DefaultSource)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), records[0].EffectiveDate)
	assert.True(t, decimal.RequireFromString("120000").Equal(records[0].Amount))
	assert.Equal(t, "Acme", records[0].Company)
	assert.Equal(t, reconcile.FrequencyMonthly, records[1].Frequency)
	assert.True(t, records[0].Verified)
	assert.NotEmpty(t, records[0].ID)
}

func TestGormStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupSQLite(t))
	engine := newEngine(store)

	_, err := engine.Reconcile(ctx, "u1", []reconcile.ProviderRecord{providerRecord("120000", "per_year", "2024-01-15")}, reconcile.Options{})
	require.NoError(t, err)

	res, err := engine.Reconcile(ctx, "u1", []reconcile.ProviderRecord{providerRecord("130000", "per_year", "2024-01-15")},
		reconcile.Options{Overwrite: true, Company: "NewCo"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Created)

	records, err := store.List(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, decimal.RequireFromString("130000").Equal(records[0].Amount))
	assert.Equal(t, "NewCo", records[0].Company)
}

func TestGormStore_Summary(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupSQLite(t))

	sum, err := store.Summary(ctx, "u1", reconcile.DefaultSource)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum.Count)
	assert.Nil(t, sum.LatestCreatedAt)

	engine := newEngine(store)
	_, err = engine.Reconcile(ctx, "u1", []reconcile.ProviderRecord{
		providerRecord("1", "hour", "2024-01-01"),
		providerRecord("2", "hour", "2024-02-01"),
	}, reconcile.Options{})
	require.NoError(t, err)

	sum, err = store.Summary(ctx, "u1", reconcile.DefaultSource)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Count)
	require.NotNil(t, sum.LatestCreatedAt)

	other, err := store.Summary(ctx, "u1", "manual")
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.Count)
}

func TestGormStore_StoreErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupSQLite(t)

	inserts := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_second", func(tx *gorm.DB) {
		inserts++
		if inserts == 2 {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	store := NewGormStore(db)
	res, err := newEngine(store).Reconcile(ctx, "u1", []reconcile.ProviderRecord{
		providerRecord("1", "year", "2024-01-01"),
		providerRecord("2", "year", "2024-02-01"),
	}, reconcile.Options{})

	require.ErrorIs(t, err, reconcile.ErrCommit)
	assert.Equal(t, reconcile.Result{}, res)

	records, err := store.List(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGormStore_CommitFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `compensation_records`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `compensation_records`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

	res, err := newEngine(store).Reconcile(context.Background(), "u1",
		[]reconcile.ProviderRecord{providerRecord("120000", "per_year", "2024-01-15")}, reconcile.Options{})

	require.ErrorIs(t, err, reconcile.ErrCommit)
	assert.Contains(t, err.Error(), "commit failed")
	assert.Equal(t, reconcile.Result{}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_NilDB(t *testing.T) {
	store := NewGormStore(nil)
	err := store.WithinTx(context.Background(), func(tx reconcile.Tx) error { return nil })
	assert.Error(t, err)
	_, err = store.Summary(context.Background(), "u1", "x")
	assert.Error(t, err)
	_, err = store.List(context.Background(), "u1", "")
	assert.Error(t, err)
}
