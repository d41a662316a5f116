// db/repo_overdue.go
package db

import (
	"context"
	"time"

	"library_borrowing_service/models"
)

type OverdueRow struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	UserEmail          string    `json:"user_email"`
	BookID             string    `json:"book_id"`
	BookTitle          string    `json:"book_title"`
	ExpectedReturnDate time.Time `json:"expected_return_date"`
}

// ListOverdue returns active borrowings due before day that were not notified since notifiedBefore.
func (r *Repo) ListOverdue(ctx context.Context, day, notifiedBefore time.Time) ([]OverdueRow, error) {
	var rows []OverdueRow
	err := r.DB.WithContext(ctx).
		Table(models.BorrowingTable+" b").
		Select(`
			b.id, b.user_id, u.email AS user_email,
			b.book_id, bk.title AS book_title,
			b.expected_return_date
		`).
		Joins("JOIN "+models.User{}.TableName()+" u ON u.id = b.user_id").
		Joins("JOIN "+models.BookTable+" bk ON bk.id = b.book_id").
		Where("b.actual_return_date IS NULL AND b.deleted_at IS NULL").
		Where("b.expected_return_date < ?", day).
		Where("(b.last_notified_at IS NULL OR b.last_notified_at < ?)", notifiedBefore).
		Order("b.expected_return_date ASC, b.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) MarkNotified(ctx context.Context, borrowingID string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Borrowing{}).
		Where("id = ?", borrowingID).
		Update("last_notified_at", at).Error
}
