package services

import (
	"time"

	"library_borrowing_service/models"

	"github.com/shopspring/decimal"
)

// RentAmount charges dailyFee for every day from borrowDate to expectedReturn.
func RentAmount(dailyFee decimal.Decimal, borrowDate, expectedReturn time.Time) decimal.Decimal {
	days := models.DaysBetween(models.DateOf(borrowDate), models.DateOf(expectedReturn))
	return dailyFee.Mul(decimal.NewFromInt(days))
}

// FineAmount charges dailyFee for every day past the due date. Zero on or before it.
func FineAmount(dailyFee decimal.Decimal, expectedReturn, actualReturn time.Time) decimal.Decimal {
	days := models.DaysBetween(models.DateOf(expectedReturn), models.DateOf(actualReturn))
	return dailyFee.Mul(decimal.NewFromInt(days))
}
