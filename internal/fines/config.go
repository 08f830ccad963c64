// internal/fines/config.go
package fines

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ErrInvalidRate is returned when an admin tries to set a non-positive daily rate.
var ErrInvalidRate = errors.New("daily fine rate must be greater than zero")

const rateKey = "daily_fine_amount"

// DefaultDailyRate seeds the settings row on first use.
var DefaultDailyRate = decimal.NewFromFloat(1.00)

// RateProvider supplies the current daily fine rate. Implementations must
// read the rate fresh on every call: the rate is admin-editable at runtime
// and the return path and the batch sweep have to agree on a single source
// of truth.
type RateProvider interface {
	DailyRate(ctx context.Context) (decimal.Decimal, error)
}

// Config is the Postgres-backed fine policy provider.
type Config struct {
	db *sqlx.DB
}

// NewConfig creates a fine policy provider over db.
func NewConfig(db *sqlx.DB) *Config {
	return &Config{db: db}
}

// DailyRate returns the configured daily fine rate, falling back to
// DefaultDailyRate when no row has been written yet.
func (c *Config) DailyRate(ctx context.Context) (decimal.Decimal, error) {
	query, _, err := goqu.Dialect("postgres").
		From("settings").
		Select("value").
		Where(goqu.C("key").Eq(rateKey)).
		ToSQL()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate query: %w", err)
	}

	var rate decimal.Decimal
	if err := c.db.QueryRowxContext(ctx, query).Scan(&rate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultDailyRate, nil
		}
		return decimal.Zero, fmt.Errorf("read daily fine rate: %w", err)
	}

	return rate, nil
}

// SetDailyRate validates and persists a new daily fine rate. Authorization
// is the caller's concern; this only enforces that the rate is positive.
func (c *Config) SetDailyRate(ctx context.Context, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return ErrInvalidRate
	}

	query, _, err := goqu.Dialect("postgres").
		Insert("settings").
		Cols("key", "value").
		Vals(goqu.Vals{rateKey, rate.StringFixed(2)}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{"value": rate.StringFixed(2)})).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build rate upsert: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("write daily fine rate: %w", err)
	}

	return nil
}
