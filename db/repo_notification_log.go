package db

import (
	"context"
	"fmt"

	"library_borrowing_service/models"

	"github.com/google/uuid"
)

func (r *Repo) LogNotification(ctx context.Context, kind, subjectID, text string, sendErr error) (*models.NotificationLog, error) {
	log := &models.NotificationLog{
		ID:        uuid.NewString(),
		Kind:      kind,
		SubjectID: subjectID,
		Text:      text,
		Delivered: sendErr == nil,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		log.Error = &msg
	}
	if err := r.DB.WithContext(ctx).Create(log).Error; err != nil {
		return nil, fmt.Errorf("insert notification log: %w", err)
	}
	return log, nil
}

func (r *Repo) ListNotifications(ctx context.Context, kind string, limit int) ([]models.NotificationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	tx := r.DB.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if kind != "" {
		tx = tx.Where("kind = ?", kind)
	}
	var logs []models.NotificationLog
	if err := tx.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
