package services

import (
	"context"
	"log/slog"

	"library_borrowing_service/db"
	"library_borrowing_service/notify"
)

const (
	KindOverdue = "overdue"
	KindPayment = "payment"
)

// announcer sends a notification and records the attempt. Delivery failures are
// logged and returned for bookkeeping only; callers never fail on them.
type announcer struct {
	sink notify.Sink
	repo *db.Repo
	log  *slog.Logger
}

func (a announcer) announce(ctx context.Context, kind, subjectID, text string) error {
	err := a.sink.Send(ctx, text)
	if err != nil {
		a.log.Warn("notification failed", "kind", kind, "subject", subjectID, "err", err)
	}
	if _, lerr := a.repo.LogNotification(ctx, kind, subjectID, text, err); lerr != nil {
		a.log.Warn("notification log failed", "kind", kind, "subject", subjectID, "err", lerr)
	}
	return err
}
