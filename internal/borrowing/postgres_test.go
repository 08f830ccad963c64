// internal/borrowing/postgres_test.go
package borrowing_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athenaeum/internal/borrowing"
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
	_, err = db.Exec(`DELETE FROM borrow_records`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM items`)
	require.NoError(t, err)

	return db
}

func insertTestItem(t *testing.T, db *sqlx.DB, total int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO items (id, isbn, title, author, total_copies, available) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, "9780141439518", "Pride and Prejudice", "Jane Austen", total, total)
	require.NoError(t, err)
	return id
}

func itemAvailable(t *testing.T, db *sqlx.DB, id uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT available FROM items WHERE id = $1`, id))
	return n
}

func Test_PostgresStore_FullLifecycleRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	store := borrowing.NewPostgresStore(db)
	svc := borrowing.NewService(store, fixedRate{rate: decimal.NewFromFloat(1.00)})
	ctx := context.Background()

	itemID := insertTestItem(t, db, 1)
	userID := uuid.New()

	rec, err := svc.Create(ctx, userID, itemID)
	require.NoError(t, err)
	assert.Equal(t, borrowing.StatusPending, rec.Status)

	approved, err := svc.Approve(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, borrowing.StatusBorrowed, approved.Status)
	require.NotNil(t, approved.DueDate)
	assert.Equal(t, 0, itemAvailable(t, db, itemID))

	receipt, err := svc.Return(ctx, rec.ID, *approved.DueDate)
	require.NoError(t, err)
	assert.Equal(t, 0, receipt.DaysOverdue)
	assert.Equal(t, 1, itemAvailable(t, db, itemID), "net zero inventory change over the full cycle")

	stored, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, borrowing.StatusReturned, stored.Status)
	require.NotNil(t, stored.ReturnDate)
}

func Test_PostgresStore_OverdueReturnPersistsFine(t *testing.T) {
	db := setupTestDB(t)
	store := borrowing.NewPostgresStore(db)
	svc := borrowing.NewService(store, fixedRate{rate: decimal.NewFromFloat(1.50)})
	ctx := context.Background()

	itemID := insertTestItem(t, db, 1)
	rec, err := svc.Create(ctx, uuid.New(), itemID)
	require.NoError(t, err)
	approved, err := svc.Approve(ctx, rec.ID)
	require.NoError(t, err)

	receipt, err := svc.Return(ctx, rec.ID, approved.DueDate.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, receipt.DaysOverdue)
	assert.Equal(t, "6.00", receipt.FineAmount.StringFixed(2))

	stored, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "6.00", stored.FineAmount.StringFixed(2))
}

func Test_PostgresStore_ConcurrentApprovals_NeverOvercommit(t *testing.T) {
	db := setupTestDB(t)
	store := borrowing.NewPostgresStore(db)
	svc := borrowing.NewService(store, fixedRate{rate: decimal.NewFromFloat(1.00)})
	ctx := context.Background()

	itemID := insertTestItem(t, db, 2)

	recordIDs := make([]uuid.UUID, 3)
	for i := range recordIDs {
		rec, err := svc.Create(ctx, uuid.New(), itemID)
		require.NoError(t, err)
		recordIDs[i] = rec.ID
	}

	errs := make([]error, len(recordIDs))
	var wg sync.WaitGroup
	for i, id := range recordIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Approve(ctx, id)
		}()
	}
	wg.Wait()

	var succeeded, unavailable int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, borrowing.ErrItemUnavailable):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, unavailable)
	assert.Equal(t, 0, itemAvailable(t, db, itemID))
}

func Test_PostgresStore_ApplyFineIfUnset_GuardsSettledRecords(t *testing.T) {
	db := setupTestDB(t)
	store := borrowing.NewPostgresStore(db)
	svc := borrowing.NewService(store, fixedRate{rate: decimal.NewFromFloat(1.00)})
	ctx := context.Background()

	itemID := insertTestItem(t, db, 1)
	rec, err := svc.Create(ctx, uuid.New(), itemID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, rec.ID)
	require.NoError(t, err)

	applied, err := store.ApplyFineIfUnset(ctx, rec.ID, decimal.NewFromFloat(3.00))
	require.NoError(t, err)
	assert.True(t, applied)

	// A second write must not re-escalate the fine.
	applied, err = store.ApplyFineIfUnset(ctx, rec.ID, decimal.NewFromFloat(99.00))
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "3.00", stored.FineAmount.StringFixed(2))
}

func Test_PostgresStore_ListSelections(t *testing.T) {
	db := setupTestDB(t)
	store := borrowing.NewPostgresStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	itemID := insertTestItem(t, db, 3)

	fixedNow := func() time.Time { return now }
	svcNow := borrowing.NewService(store, fixedRate{rate: decimal.NewFromFloat(1.00)},
		borrowing.WithClock(fixedNow))

	// One record due in 7 days via the normal path.
	rec, err := svcNow.Create(ctx, uuid.New(), itemID)
	require.NoError(t, err)
	_, err = svcNow.Approve(ctx, rec.ID)
	require.NoError(t, err)

	// And one already overdue via a backdated clock.
	svcPast := borrowing.NewService(store, fixedRate{rate: decimal.NewFromFloat(1.00)},
		borrowing.WithClock(func() time.Time { return now.AddDate(0, 0, -10) }))
	overdueRec, err := svcPast.Create(ctx, uuid.New(), itemID)
	require.NoError(t, err)
	_, err = svcPast.Approve(ctx, overdueRec.ID)
	require.NoError(t, err)

	dueSoon, err := store.ListBorrowedDueBetween(ctx, now, now.AddDate(0, 0, 8))
	require.NoError(t, err)
	require.Len(t, dueSoon, 1)
	assert.Equal(t, rec.ID, dueSoon[0].ID)

	overdue, err := store.ListOverdueWithoutFine(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, overdueRec.ID, overdue[0].ID)
}

func Test_PostgresStore_HasActiveForItem(t *testing.T) {
	db := setupTestDB(t)
	store := borrowing.NewPostgresStore(db)
	svc := borrowing.NewService(store, fixedRate{rate: decimal.NewFromFloat(1.00)})
	ctx := context.Background()

	itemID := insertTestItem(t, db, 1)

	active, err := store.HasActiveForItem(ctx, itemID)
	require.NoError(t, err)
	assert.False(t, active)

	rec, err := svc.Create(ctx, uuid.New(), itemID)
	require.NoError(t, err)

	active, err = store.HasActiveForItem(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, active, "a PENDING record keeps the item referenced")

	_, err = svc.Approve(ctx, rec.ID)
	require.NoError(t, err)
	_, err = svc.Return(ctx, rec.ID, time.Time{})
	require.NoError(t, err)

	active, err = store.HasActiveForItem(ctx, itemID)
	require.NoError(t, err)
	assert.False(t, active, "a RETURNED record no longer blocks deletion")
}
