package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PaymentTable = "lib_payments"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentExpired   PaymentStatus = "EXPIRED"
)

type PaymentType string

const (
	PaymentRent PaymentType = "RENT"
	PaymentFine PaymentType = "FINE"
)

type Payment struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Status      PaymentStatus   `gorm:"size:20;index;not null" json:"status"`
	Type        PaymentType     `gorm:"size:10;not null" json:"type"`
	BorrowingID string          `gorm:"type:uuid;index;not null" json:"borrowing_id"`
	SessionURL  string          `gorm:"size:1024" json:"session_url"`
	SessionID   string          `gorm:"size:255;index" json:"session_id"`
	MoneyToPay  decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"money_to_pay"`

	// set exactly once by the reconciliation that flipped the payment to PAID
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	FailureReason string     `gorm:"size:255" json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return PaymentTable }
