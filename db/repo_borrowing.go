package db

import (
	"context"
	"errors"
	"time"

	"library_borrowing_service/models"

	"gorm.io/gorm"
)

var ErrAlreadyReturned = errors.New("borrowing already returned")

func (r *Repo) CreateBorrowing(ctx context.Context, b *models.Borrowing) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *Repo) FindBorrowing(ctx context.Context, id string) (*models.Borrowing, error) {
	var b models.Borrowing
	err := r.DB.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// LockBorrowing loads the borrowing row and holds it until the transaction ends.
func (r *Repo) LockBorrowing(ctx context.Context, id string) (*models.Borrowing, error) {
	var b models.Borrowing
	if err := r.forUpdate(r.DB.WithContext(ctx)).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// MarkReturned is the check-and-act for returns: only an active row is updated.
func (r *Repo) MarkReturned(ctx context.Context, id string, day time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Borrowing{}).
		Where("id = ? AND actual_return_date IS NULL", id).
		Update("actual_return_date", day)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyReturned
	}
	return nil
}

// SoftDeleteBorrowing hides a borrowing whose creation was rolled back.
func (r *Repo) SoftDeleteBorrowing(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&models.Borrowing{ID: id}).Error
}

// CountBorrowingsForBook counts every borrowing ever made of the book, rolled back ones included.
func (r *Repo) CountBorrowingsForBook(ctx context.Context, bookID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Unscoped().Model(&models.Borrowing{}).
		Where("book_id = ?", bookID).
		Count(&n).Error
	return n, err
}

type BorrowingQuery struct {
	UserID   string
	IsActive *bool
}

func (r *Repo) ListBorrowings(ctx context.Context, q BorrowingQuery) ([]models.Borrowing, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Borrowing{}).
		Preload("Book").
		Preload("User").
		Preload("Payments").
		Order("borrow_date DESC, created_at DESC")
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.IsActive != nil {
		if *q.IsActive {
			tx = tx.Where("actual_return_date IS NULL")
		} else {
			tx = tx.Where("actual_return_date IS NOT NULL")
		}
	}
	var bs []models.Borrowing
	if err := tx.Find(&bs).Error; err != nil {
		return nil, err
	}
	return bs, nil
}
