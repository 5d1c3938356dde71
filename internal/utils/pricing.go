package utils

import (
	"fmt"

	"github.com/shopspring/decimal"

	"toolshare-backend/internal/domain"
)

// PriceScale is the number of fraction digits kept in currency amounts.
const PriceScale = 2

// CalculateRentalPrice returns dailyRate times the number of days from start
// through end inclusive, rounded half-up to cents.
func CalculateRentalPrice(dailyRate decimal.Decimal, start, end domain.Date) (decimal.Decimal, error) {
	if !dailyRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: daily rate must be greater than zero", domain.ErrInvalidInput)
	}

	rng := domain.NewDateRange(start, end)
	if err := rng.Validate(); err != nil {
		return decimal.Zero, err
	}

	days := decimal.NewFromInt(int64(rng.Days()))
	// Round is half away from zero, which is half-up for positive amounts.
	return dailyRate.Mul(days).Round(PriceScale), nil
}

// FormatPrice renders an amount with exactly two fraction digits.
func FormatPrice(amount decimal.Decimal) string {
	return amount.StringFixed(PriceScale)
}

// ParsePrice reads a decimal currency amount, rounding it half-up to cents.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", domain.ErrInvalidInput, s)
	}
	return d.Round(PriceScale), nil
}
