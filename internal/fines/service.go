// internal/fines/service.go
package fines

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service is the full fine policy surface: read for the return path and the
// batch sweep, write for the admin action.
type Service interface {
	RateProvider
	SetDailyRate(ctx context.Context, rate decimal.Decimal) error
}

var _ Service = (*Config)(nil)
