package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"library_borrowing_service/checkout"
	"library_borrowing_service/db"
	"library_borrowing_service/models"
	"library_borrowing_service/notify"
)

// Requester is the authenticated identity behind a call.
type Requester struct {
	UserID  string
	IsStaff bool
}

type PaymentConfig struct {
	PublicURL string        // base for the success/cancel callbacks
	Currency  string        // ISO code, lower case
	Timeout   time.Duration // bound on every gateway call
}

// Payments is the payment record manager: it opens checkout sessions for payment
// obligations and reconciles them against the provider.
type Payments struct {
	repo    *db.Repo
	gateway checkout.Gateway
	ann     announcer
	log     *slog.Logger
	cfg     PaymentConfig
	now     func() time.Time
}

func NewPayments(repo *db.Repo, gateway checkout.Gateway, sink notify.Sink, log *slog.Logger, cfg PaymentConfig) *Payments {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Payments{
		repo:    repo,
		gateway: gateway,
		ann:     announcer{sink: sink, repo: repo, log: log},
		log:     log,
		cfg:     cfg,
		now:     time.Now,
	}
}

// CallbackURLs are the pages the provider redirects to after checkout.
func (s *Payments) CallbackURLs(paymentID string) (success, cancel string) {
	base := strings.TrimRight(s.cfg.PublicURL, "/") + "/payments/" + paymentID
	return base + "/success", base + "/cancel"
}

// OpenSession asks the provider for a hosted checkout page for p and stores its
// identifiers on the payment. Provider failures come back as *GatewayError.
func (s *Payments) OpenSession(ctx context.Context, p *models.Payment, successURL, cancelURL string) error {
	if p.Status != models.PaymentPending {
		return &ConflictError{Message: fmt.Sprintf("payment is %s", p.Status)}
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	sess, err := s.gateway.CreateSession(gctx, checkout.SessionRequest{
		Reference:  p.ID,
		Name:       fmt.Sprintf("%s payment for borrowing %s", strings.ToLower(string(p.Type)), p.BorrowingID),
		Amount:     p.MoneyToPay,
		Currency:   s.cfg.Currency,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		return &GatewayError{Op: "create session", Err: err}
	}

	if err := s.repo.SetPaymentSession(ctx, p.ID, sess.ID, sess.URL); err != nil {
		return fmt.Errorf("store checkout session: %w", err)
	}
	p.SessionID = sess.ID
	p.SessionURL = sess.URL
	return nil
}

// Get loads a payment the requester may see.
func (s *Payments) Get(ctx context.Context, id string, req Requester) (*models.Payment, error) {
	p, err := s.repo.FindPayment(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if req.IsStaff {
		return p, nil
	}
	owner, err := s.repo.BorrowingOwner(ctx, p.BorrowingID)
	if err != nil {
		return nil, translate(err)
	}
	if owner != req.UserID {
		return nil, ErrNotFound
	}
	return p, nil
}

type PaymentFilter struct {
	Status models.PaymentStatus
	Type   models.PaymentType
}

func (s *Payments) List(ctx context.Context, req Requester, f PaymentFilter) ([]models.Payment, error) {
	q := db.PaymentQuery{Status: f.Status, Type: f.Type}
	if !req.IsStaff {
		q.UserID = req.UserID
	}
	return s.repo.ListPayments(ctx, q)
}

// Checkout returns a payment with a usable session, opening one if it has none yet.
func (s *Payments) Checkout(ctx context.Context, id string, req Requester) (*models.Payment, error) {
	p, err := s.Get(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if p.SessionID != "" && p.Status == models.PaymentPending {
		return p, nil
	}
	success, cancel := s.CallbackURLs(p.ID)
	if err := s.OpenSession(ctx, p, success, cancel); err != nil {
		return nil, err
	}
	return p, nil
}

// Reconcile confirms a payment with the provider. An already paid payment is a
// no-op. Only the call that moves the payment to PAID sends the notification.
func (s *Payments) Reconcile(ctx context.Context, id string, req Requester) (*models.Payment, error) {
	p, err := s.Get(ctx, id, req)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case models.PaymentPaid:
		return p, nil
	case models.PaymentPending:
	default:
		return nil, &ConflictError{Message: fmt.Sprintf("payment is %s", p.Status)}
	}
	if p.SessionID == "" {
		return nil, &ValidationError{Field: "session_id", Message: "payment has no checkout session"}
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	status, err := s.gateway.SessionStatus(gctx, p.SessionID)
	if err != nil {
		return nil, &GatewayError{Op: "session status", Err: err}
	}
	if status != checkout.StatusPaid {
		return nil, ErrPaymentNotCompleted
	}

	now := s.now().UTC()
	won, err := s.repo.MarkPaymentPaid(ctx, p.ID, now)
	if err != nil {
		return nil, fmt.Errorf("mark payment paid: %w", err)
	}
	if won {
		_ = s.ann.announce(ctx, KindPayment, p.ID, paymentMessage(p))
	}
	return s.repo.FindPayment(ctx, p.ID)
}

func paymentMessage(p *models.Payment) string {
	return fmt.Sprintf(
		"Payment successful:\nPayment ID: %s\nType: %s\nBorrowing ID: %s\nAmount: %s",
		p.ID, p.Type, p.BorrowingID, p.MoneyToPay.StringFixed(2),
	)
}

// CancelSession acknowledges an abandoned checkout. The payment stays PENDING.
func (s *Payments) CancelSession(ctx context.Context, id string, req Requester) (*models.Payment, error) {
	return s.Get(ctx, id, req)
}

// compensate undoes a borrowing whose rent session could not be opened: the rent is
// cancelled, the borrowing hidden and the copy put back, all in one transaction.
func (s *Payments) compensate(ctx context.Context, p *models.Payment, reason string) error {
	ctx = context.WithoutCancel(ctx)
	return s.repo.Transaction(ctx, func(tx *db.Repo) error {
		b, err := tx.LockBorrowing(ctx, p.BorrowingID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}
		cancelled, err := tx.CancelPayment(ctx, p.ID, reason)
		if err != nil {
			return err
		}
		if !cancelled || b == nil || p.Type != models.PaymentRent || !b.Active() {
			return nil
		}
		if err := tx.SoftDeleteBorrowing(ctx, b.ID); err != nil {
			return err
		}
		return tx.ReturnCopy(ctx, b.BookID)
	})
}

// ResolveAbandoned compensates rent payments that never got a session, e.g. because
// the process died between the two saga steps.
func (s *Payments) ResolveAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	ps, err := s.repo.ListAbandonedRent(ctx, s.now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range ps {
		if err := s.compensate(ctx, &ps[i], "checkout session was never opened"); err != nil {
			s.log.Error("compensate abandoned payment", "payment", ps[i].ID, "err", err)
			continue
		}
		n++
	}
	return n, nil
}

func translate(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
