package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"library_borrowing_service/db"
	"library_borrowing_service/models"

	"github.com/google/uuid"
)

const msgNotAvailable = "Book is not available for borrowing."

type CreateBorrowingInput struct {
	BookID             string
	ExpectedReturnDate time.Time
	UserID             string
}

type BorrowingFilter struct {
	IsActive *bool
	UserID   string // staff only
}

// Borrowings drives the borrowing state machine: ACTIVE on creation, RETURNED once.
type Borrowings struct {
	repo     *db.Repo
	payments *Payments
	log      *slog.Logger
	now      func() time.Time
}

func NewBorrowings(repo *db.Repo, payments *Payments, log *slog.Logger) *Borrowings {
	return &Borrowings{repo: repo, payments: payments, log: log, now: time.Now}
}

// CreateBorrowing takes a copy off the shelf, records the borrowing with its rent
// and opens the rent checkout session. If the session cannot be opened the whole
// borrowing is rolled back and a *GatewayError is returned.
func (s *Borrowings) CreateBorrowing(ctx context.Context, in CreateBorrowingInput) (*models.Borrowing, error) {
	today := models.DateOf(s.now())
	expected := models.DateOf(in.ExpectedReturnDate)
	if in.BookID == "" {
		return nil, &ValidationError{Field: "book", Message: "This field is required."}
	}
	if !expected.After(today) {
		return nil, &ValidationError{Field: "expected_return_date", Message: "Expected return date must be after the borrow date."}
	}

	var (
		borrowing *models.Borrowing
		rent      *models.Payment
	)
	err := s.repo.Transaction(ctx, func(tx *db.Repo) error {
		book, err := tx.LockBook(ctx, in.BookID)
		if err != nil {
			return err
		}
		if !book.Available() {
			return &ValidationError{Field: "book", Message: msgNotAvailable}
		}
		if err := book.Decrement(); err != nil {
			return &InvariantViolation{Message: "inventory", Err: err}
		}
		if err := tx.TakeCopy(ctx, book.ID); err != nil {
			if errors.Is(err, db.ErrNoCopyLeft) {
				return &ValidationError{Field: "book", Message: msgNotAvailable}
			}
			return err
		}

		borrowing = &models.Borrowing{
			ID:                 uuid.NewString(),
			BorrowDate:         today,
			ExpectedReturnDate: expected,
			BookID:             book.ID,
			UserID:             in.UserID,
		}
		if err := tx.CreateBorrowing(ctx, borrowing); err != nil {
			return err
		}
		rent = &models.Payment{
			ID:          uuid.NewString(),
			Status:      models.PaymentPending,
			Type:        models.PaymentRent,
			BorrowingID: borrowing.ID,
			MoneyToPay:  RentAmount(book.DailyFee, today, expected),
		}
		if err := tx.CreatePayment(ctx, rent); err != nil {
			return err
		}
		borrowing.Book = book
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	// 事务外调用支付网关
	success, cancel := s.payments.CallbackURLs(rent.ID)
	if err := s.payments.OpenSession(ctx, rent, success, cancel); err != nil {
		if cerr := s.payments.compensate(ctx, rent, err.Error()); cerr != nil {
			s.log.Error("compensate borrowing", "borrowing", borrowing.ID, "err", cerr)
		}
		return nil, err
	}

	borrowing.Payments = []models.Payment{*rent}
	return borrowing, nil
}

// ReturnBorrowing marks the borrowing returned, puts the copy back and charges a
// fine when it is late. A fine session is opened after commit on a best-effort basis.
func (s *Borrowings) ReturnBorrowing(ctx context.Context, id string, req Requester) (*models.Borrowing, *models.Payment, error) {
	today := models.DateOf(s.now())

	var fine *models.Payment
	err := s.repo.Transaction(ctx, func(tx *db.Repo) error {
		b, err := tx.LockBorrowing(ctx, id)
		if err != nil {
			return err
		}
		if !req.IsStaff && b.UserID != req.UserID {
			return db.ErrNotFound
		}
		if err := tx.MarkReturned(ctx, b.ID, today); err != nil {
			if errors.Is(err, db.ErrAlreadyReturned) {
				return &ConflictError{Message: "Book has already been returned"}
			}
			return err
		}
		book, err := tx.LockBook(ctx, b.BookID)
		if err != nil {
			return &InvariantViolation{Message: "borrowing references a missing book", Err: err}
		}
		book.Increment()
		if err := tx.ReturnCopy(ctx, book.ID); err != nil {
			return err
		}
		if amount := FineAmount(book.DailyFee, b.ExpectedReturnDate, today); amount.IsPositive() {
			fine = &models.Payment{
				ID:          uuid.NewString(),
				Status:      models.PaymentPending,
				Type:        models.PaymentFine,
				BorrowingID: b.ID,
				MoneyToPay:  amount,
			}
			return tx.CreatePayment(ctx, fine)
		}
		return nil
	})
	if err != nil {
		return nil, nil, translate(err)
	}

	if fine != nil {
		success, cancel := s.payments.CallbackURLs(fine.ID)
		if err := s.payments.OpenSession(ctx, fine, success, cancel); err != nil {
			s.log.Warn("fine session not opened", "payment", fine.ID, "err", err)
		}
	}

	b, err := s.repo.FindBorrowing(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("reload borrowing: %w", err)
	}
	return b, fine, nil
}

func (s *Borrowings) Get(ctx context.Context, id string, req Requester) (*models.Borrowing, error) {
	b, err := s.repo.FindBorrowing(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !req.IsStaff && b.UserID != req.UserID {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Borrowings) List(ctx context.Context, req Requester, f BorrowingFilter) ([]models.Borrowing, error) {
	q := db.BorrowingQuery{IsActive: f.IsActive, UserID: req.UserID}
	if req.IsStaff {
		q.UserID = f.UserID
	}
	return s.repo.ListBorrowings(ctx, q)
}
