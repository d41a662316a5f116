package db

import (
	"context"
	"time"

	"library_borrowing_service/models"
)

func (r *Repo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *Repo) FindPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// BorrowingOwner returns the user id behind a borrowing, rolled back ones included.
func (r *Repo) BorrowingOwner(ctx context.Context, borrowingID string) (string, error) {
	var b models.Borrowing
	if err := r.DB.WithContext(ctx).Unscoped().Select("id", "user_id").First(&b, "id = ?", borrowingID).Error; err != nil {
		return "", notFound(err)
	}
	return b.UserID, nil
}

type PaymentQuery struct {
	UserID string
	Status models.PaymentStatus
	Type   models.PaymentType
}

func (r *Repo) ListPayments(ctx context.Context, q PaymentQuery) ([]models.Payment, error) {
	p := models.PaymentTable
	tx := r.DB.WithContext(ctx).Model(&models.Payment{}).
		Select(p + ".*").
		Order(p + ".created_at DESC")
	if q.UserID != "" {
		tx = tx.Joins("JOIN "+models.BorrowingTable+" b ON b.id = "+p+".borrowing_id").
			Where("b.user_id = ?", q.UserID)
	}
	if q.Status != "" {
		tx = tx.Where(p+".status = ?", q.Status)
	}
	if q.Type != "" {
		tx = tx.Where(p+".type = ?", q.Type)
	}
	var ps []models.Payment
	if err := tx.Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *Repo) SetPaymentSession(ctx context.Context, id, sessionID, sessionURL string) error {
	res := r.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{"session_id": sessionID, "session_url": sessionURL})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaymentPaid flips PENDING to PAID. It reports false when another call got there first.
func (r *Repo) MarkPaymentPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Updates(map[string]any{"status": models.PaymentPaid, "paid_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CancelPayment flips PENDING to CANCELLED and records why.
func (r *Repo) CancelPayment(ctx context.Context, id, reason string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Updates(map[string]any{"status": models.PaymentCancelled, "failure_reason": reason})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListAbandonedRent finds rent payments that never got a checkout session.
func (r *Repo) ListAbandonedRent(ctx context.Context, createdBefore time.Time) ([]models.Payment, error) {
	var ps []models.Payment
	err := r.DB.WithContext(ctx).
		Where("type = ? AND status = ? AND (session_id = '' OR session_id IS NULL) AND created_at < ?",
			models.PaymentRent, models.PaymentPending, createdBefore).
		Order("created_at ASC").
		Find(&ps).Error
	return ps, err
}
