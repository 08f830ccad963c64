// internal/fines/config_test.go
package fines_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athenaeum/internal/fines"
	"athenaeum/internal/storage"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	env := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		env("PGHOST", "localhost"), env("PGPORT", "5432"),
		env("PGUSER", "postgres"), env("PGPASSWORD", "postgres"),
		env("PGDATABASE", "athenaeum_test"))

	db, err := storage.Connect(context.Background(), dsn)
	if err != nil {
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.EnsureSchema(context.Background(), db))
	_, err = db.Exec(`DELETE FROM settings`)
	require.NoError(t, err)

	return db
}

func Test_DailyRate_DefaultsWhenUnset(t *testing.T) {
	db := setupTestDB(t)
	config := fines.NewConfig(db)

	rate, err := config.DailyRate(context.Background())

	require.NoError(t, err)
	assert.True(t, rate.Equal(fines.DefaultDailyRate))
}

func Test_SetDailyRate_IsReadFreshOnNextUse(t *testing.T) {
	db := setupTestDB(t)
	config := fines.NewConfig(db)
	ctx := context.Background()

	require.NoError(t, config.SetDailyRate(ctx, decimal.NewFromFloat(2.50)))
	rate, err := config.DailyRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.50", rate.StringFixed(2))

	// An admin edit takes effect immediately, no restart or cache flush.
	require.NoError(t, config.SetDailyRate(ctx, decimal.NewFromFloat(0.75)))
	rate, err = config.DailyRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.75", rate.StringFixed(2))
}

func Test_SetDailyRate_RejectsNonPositiveRates(t *testing.T) {
	db := setupTestDB(t)
	config := fines.NewConfig(db)
	ctx := context.Background()

	assert.ErrorIs(t, config.SetDailyRate(ctx, decimal.Zero), fines.ErrInvalidRate)
	assert.ErrorIs(t, config.SetDailyRate(ctx, decimal.NewFromFloat(-1.00)), fines.ErrInvalidRate)
}
