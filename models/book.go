// models/book.go
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const BookTable = "lib_books"

type Cover string

const (
	CoverHard Cover = "HARD"
	CoverSoft Cover = "SOFT"
)

func (c Cover) Valid() bool { return c == CoverHard || c == CoverSoft }

type Book struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string          `gorm:"size:255;not null" json:"title"`
	Author    string          `gorm:"size:255;not null" json:"author"`
	Cover     Cover           `gorm:"size:10;not null" json:"cover"`
	Inventory int             `gorm:"not null;default:0;check:inventory >= 0" json:"inventory"`
	DailyFee  decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"daily_fee"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Book) TableName() string { return BookTable }

// InventoryError is returned when a ledger operation would drive inventory below zero.
type InventoryError struct {
	BookID    string
	Inventory int
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("book %s: inventory %d cannot be decremented", e.BookID, e.Inventory)
}

// Decrement takes one copy off the shelf.
func (b *Book) Decrement() error {
	if b.Inventory-1 < 0 {
		return &InventoryError{BookID: b.ID, Inventory: b.Inventory}
	}
	b.Inventory--
	return nil
}

// Increment puts one copy back. There is no upper bound.
func (b *Book) Increment() { b.Inventory++ }

func (b *Book) Available() bool { return b.Inventory > 0 }
