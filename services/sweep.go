package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"library_borrowing_service/db"
	"library_borrowing_service/models"
	"library_borrowing_service/notify"
)

const sweepLockName = "sweep:lock"

// Locker is a cross-process mutual exclusion, e.g. session.Lock.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

type SweepResult struct {
	Found    int `json:"found"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

// Sweeper announces overdue borrowings, at most once per borrowing per day.
type Sweeper struct {
	repo    *db.Repo
	ann     announcer
	locker  Locker // optional
	lockTTL time.Duration
	log     *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

func NewSweeper(repo *db.Repo, sink notify.Sink, locker Locker, log *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:    repo,
		ann:     announcer{sink: sink, repo: repo, log: log},
		locker:  locker,
		lockTTL: 10 * time.Minute,
		log:     log,
		now:     time.Now,
	}
}

func overdueMessage(r db.OverdueRow) string {
	return fmt.Sprintf("Overdue borrowing:\nBorrowing ID: %s\nUser: %s\nBook: %s", r.ID, r.UserEmail, r.BookTitle)
}

// Run performs one sweep. A second Run while one is in progress, here or in
// another process, returns ErrSweepInProgress.
func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if !s.mu.TryLock() {
		return res, ErrSweepInProgress
	}
	defer s.mu.Unlock()

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, sweepLockName, s.lockTTL)
		if err != nil {
			return res, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			return res, ErrSweepInProgress
		}
		defer release()
	}

	now := s.now().UTC()
	today := models.DateOf(now)
	rows, err := s.repo.ListOverdue(ctx, today, today)
	if err != nil {
		return res, fmt.Errorf("list overdue: %w", err)
	}
	res.Found = len(rows)

	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.ann.announce(ctx, KindOverdue, r.ID, overdueMessage(r)); err != nil {
			res.Failed++
			continue
		}
		if err := s.repo.MarkNotified(ctx, r.ID, now); err != nil {
			s.log.Error("mark notified", "borrowing", r.ID, "err", err)
			res.Failed++
			continue
		}
		res.Notified++
	}
	s.log.Info("overdue sweep done", "found", res.Found, "notified", res.Notified, "failed", res.Failed)
	return res, nil
}

// Scheduler runs the sweep and the abandoned-payment job on a fixed interval.
type Scheduler struct {
	Sweeper        *Sweeper
	Payments       *Payments
	Interval       time.Duration
	AbandonedAfter time.Duration
	Log            *slog.Logger
}

// Start runs once immediately and then on every tick until ctx is done.
func (sc *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(sc.Interval)
	defer ticker.Stop()

	sc.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			sc.Log.Info("scheduler stopped")
			return
		case <-ticker.C:
			sc.tick(ctx)
		}
	}
}

func (sc *Scheduler) tick(ctx context.Context) {
	if _, err := sc.Sweeper.Run(ctx); err != nil {
		sc.Log.Warn("overdue sweep", "err", err)
	}
	if sc.Payments != nil {
		n, err := sc.Payments.ResolveAbandoned(ctx, sc.AbandonedAfter)
		if err != nil {
			sc.Log.Warn("resolve abandoned payments", "err", err)
		} else if n > 0 {
			sc.Log.Info("abandoned payments resolved", "count", n)
		}
	}
}
