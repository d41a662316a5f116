// db/repo_users_admin.go
package db

import (
	"context"

	"library_borrowing_service/models"
)

func (r *Repo) SetUserStaff(ctx context.Context, userID string, isStaff bool) error {
	res := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_staff", isStaff)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CountStaff(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("is_staff = ?", true).
		Count(&n).Error
	return n, err
}
