package db

import (
	"context"
	"testing"
	"time"

	"library_borrowing_service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seed struct {
	repo *Repo
	user *models.User
	book *models.Book
}

func newSeed(t *testing.T, inventory int) *seed {
	t.Helper()
	repo := NewRepo(NewTestDB(t))
	ctx := context.Background()
	u := &models.User{ID: uuid.NewString(), Email: "reader@example.com", PasswordHash: "x"}
	require.NoError(t, repo.CreateUser(ctx, u))
	b := &models.Book{
		ID: uuid.NewString(), Title: "Dune", Author: "Frank Herbert", Cover: models.CoverHard,
		Inventory: inventory, DailyFee: decimal.RequireFromString("1.25"),
	}
	require.NoError(t, repo.CreateBook(ctx, b))
	return &seed{repo: repo, user: u, book: b}
}

func (s *seed) borrowing(t *testing.T, due time.Time) *models.Borrowing {
	t.Helper()
	br := &models.Borrowing{
		ID: uuid.NewString(), BorrowDate: due.AddDate(0, 0, -3), ExpectedReturnDate: due,
		BookID: s.book.ID, UserID: s.user.ID,
	}
	require.NoError(t, s.repo.CreateBorrowing(context.Background(), br))
	return br
}

func TestTakeCopyStopsAtZero(t *testing.T) {
	s := newSeed(t, 1)
	ctx := context.Background()

	require.NoError(t, s.repo.TakeCopy(ctx, s.book.ID))
	assert.ErrorIs(t, s.repo.TakeCopy(ctx, s.book.ID), ErrNoCopyLeft)

	b, err := s.repo.FindBookByID(ctx, s.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Inventory)

	require.NoError(t, s.repo.ReturnCopy(ctx, s.book.ID))
	assert.ErrorIs(t, s.repo.ReturnCopy(ctx, uuid.NewString()), ErrNotFound)
}

func TestMarkReturnedOnce(t *testing.T) {
	s := newSeed(t, 1)
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	br := s.borrowing(t, day)

	require.NoError(t, s.repo.MarkReturned(ctx, br.ID, day))
	assert.ErrorIs(t, s.repo.MarkReturned(ctx, br.ID, day.AddDate(0, 0, 1)), ErrAlreadyReturned)

	got, err := s.repo.FindBorrowing(ctx, br.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActualReturnDate)
	assert.True(t, got.ActualReturnDate.Equal(day))
	assert.Equal(t, "Dune", got.Book.Title)
}

func TestPaymentTransitions(t *testing.T) {
	s := newSeed(t, 1)
	ctx := context.Background()
	br := s.borrowing(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	p := &models.Payment{
		ID: uuid.NewString(), Status: models.PaymentPending, Type: models.PaymentRent,
		BorrowingID: br.ID, MoneyToPay: decimal.RequireFromString("3.75"),
	}
	require.NoError(t, s.repo.CreatePayment(ctx, p))

	paidAt := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	won, err := s.repo.MarkPaymentPaid(ctx, p.ID, paidAt)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = s.repo.MarkPaymentPaid(ctx, p.ID, paidAt.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, won, "second flip loses")

	cancelled, err := s.repo.CancelPayment(ctx, p.ID, "late")
	require.NoError(t, err)
	assert.False(t, cancelled, "paid payments never change")

	got, err := s.repo.FindPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.Status)
	assert.True(t, got.PaidAt.Equal(paidAt))
	assert.True(t, got.MoneyToPay.Equal(decimal.RequireFromString("3.75")))

	owner, err := s.repo.BorrowingOwner(ctx, br.ID)
	require.NoError(t, err)
	assert.Equal(t, s.user.ID, owner)
}

func TestOneRentPerBorrowing(t *testing.T) {
	s := newSeed(t, 1)
	ctx := context.Background()
	br := s.borrowing(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	rent := func() *models.Payment {
		return &models.Payment{
			ID: uuid.NewString(), Status: models.PaymentPending, Type: models.PaymentRent,
			BorrowingID: br.ID, MoneyToPay: decimal.NewFromInt(1),
		}
	}
	require.NoError(t, s.repo.CreatePayment(ctx, rent()))
	assert.Error(t, s.repo.CreatePayment(ctx, rent()))
}

func TestListOverdue(t *testing.T) {
	s := newSeed(t, 5)
	ctx := context.Background()
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	late := s.borrowing(t, today.AddDate(0, 0, -2))
	s.borrowing(t, today) // due today
	gone := s.borrowing(t, today.AddDate(0, 0, -4))
	require.NoError(t, s.repo.SoftDeleteBorrowing(ctx, gone.ID))

	rows, err := s.repo.ListOverdue(ctx, today, today)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, late.ID, rows[0].ID)
	assert.Equal(t, "reader@example.com", rows[0].UserEmail)
	assert.Equal(t, "Dune", rows[0].BookTitle)

	require.NoError(t, s.repo.MarkNotified(ctx, late.ID, today.Add(9*time.Hour)))
	rows, err = s.repo.ListOverdue(ctx, today, today)
	require.NoError(t, err)
	assert.Empty(t, rows)

	tomorrow := today.AddDate(0, 0, 1)
	rows, err = s.repo.ListOverdue(ctx, tomorrow, tomorrow)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDeleteBookCountsRolledBackBorrowings(t *testing.T) {
	s := newSeed(t, 1)
	ctx := context.Background()
	br := s.borrowing(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.repo.SoftDeleteBorrowing(ctx, br.ID))

	n, err := s.repo.CountBorrowingsForBook(ctx, s.book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.repo.FindBorrowing(ctx, br.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
