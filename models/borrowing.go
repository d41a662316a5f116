// models/borrowing.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const BorrowingTable = "lib_borrowings"

type Borrowing struct {
	ID                 string     `gorm:"type:uuid;primaryKey" json:"id"`
	BorrowDate         time.Time  `gorm:"not null" json:"borrow_date"`
	ExpectedReturnDate time.Time  `gorm:"index;not null" json:"expected_return_date"`
	ActualReturnDate   *time.Time `gorm:"index" json:"actual_return_date"`

	BookID string `gorm:"type:uuid;index;not null" json:"book_id"`
	Book   *Book  `gorm:"foreignKey:BookID" json:"book,omitempty"`
	UserID string `gorm:"type:uuid;index;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Payments []Payment `gorm:"foreignKey:BorrowingID" json:"payments"`

	// last overdue notification; the sweep skips rows already notified today
	LastNotifiedAt *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Borrowing) TableName() string { return BorrowingTable }

func (b *Borrowing) Active() bool { return b.ActualReturnDate == nil }

// Overdue reports whether the borrowing is still out past its due date on day.
func (b *Borrowing) Overdue(day time.Time) bool {
	return b.Active() && b.ExpectedReturnDate.Before(DateOf(day))
}

// DateOf truncates t to midnight UTC. All borrowing dates are stored this way.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b, rounding a partial day up.
// It returns 0 when b is not after a.
func DaysBetween(a, b time.Time) int64 {
	if !b.After(a) {
		return 0
	}
	d := b.Sub(a)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
