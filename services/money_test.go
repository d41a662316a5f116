package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRentAmount(t *testing.T) {
	borrowed := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)
	fee := decimal.RequireFromString("2.00")

	assert.True(t, RentAmount(fee, borrowed, borrowed.AddDate(0, 0, 30)).Equal(decimal.NewFromInt(60)))
	assert.True(t, RentAmount(decimal.RequireFromString("0.75"), borrowed, borrowed.AddDate(0, 0, 3)).
		Equal(decimal.RequireFromString("2.25")))
	assert.True(t, RentAmount(fee, borrowed, borrowed).IsZero())
}

func TestFineAmount(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fee := decimal.RequireFromString("2")

	assert.True(t, FineAmount(fee, due, due.AddDate(0, 0, 5)).Equal(decimal.NewFromInt(10)))
	// time of day is ignored, only calendar days count
	assert.True(t, FineAmount(fee, due, due.AddDate(0, 0, 1).Add(23*time.Hour)).Equal(decimal.NewFromInt(2)))
	assert.True(t, FineAmount(fee, due, due).IsZero(), "no fine on the due date")
	assert.True(t, FineAmount(fee, due, due.AddDate(0, 0, -2)).IsZero(), "no fine when early")
}
