package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"library_borrowing_service/checkout"
	"library_borrowing_service/db"
	"library_borrowing_service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errProviderDown = errors.New("provider down")

type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	status    string
	statusErr error
	requests  []checkout.SessionRequest
	n         int
}

func (g *fakeGateway) CreateSession(_ context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.n++
	id := fmt.Sprintf("cs_test_%d", g.n)
	return &checkout.Session{ID: id, URL: "https://checkout.test/pay/" + id}, nil
}

func (g *fakeGateway) SessionStatus(_ context.Context, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, g.statusErr
}

func (g *fakeGateway) setStatus(s string) {
	g.mu.Lock()
	g.status = s
	g.mu.Unlock()
}

type spySink struct {
	mu   sync.Mutex
	err  error
	msgs []string
}

func (s *spySink) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, text)
	return nil
}

func (s *spySink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

type fixture struct {
	repo       *db.Repo
	gw         *fakeGateway
	sink       *spySink
	payments   *Payments
	borrowings *Borrowings
	books      *Books
	sweeper    *Sweeper

	mu  sync.Mutex
	now time.Time
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := db.NewRepo(db.NewTestDB(t))
	log := discardLogger()
	f := &fixture{
		repo: repo,
		gw:   &fakeGateway{status: "unpaid"},
		sink: &spySink{},
		now:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.payments = NewPayments(repo, f.gw, f.sink, log, PaymentConfig{PublicURL: "http://library.test/"})
	f.borrowings = NewBorrowings(repo, f.payments, log)
	f.books = NewBooks(repo)
	f.sweeper = NewSweeper(repo, f.sink, nil, log)

	f.payments.now = f.clock
	f.borrowings.now = f.clock
	f.sweeper.now = f.clock
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: "x"}
	require.NoError(t, f.repo.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) book(t *testing.T, title string, inventory int, fee string) *models.Book {
	t.Helper()
	b := &models.Book{
		ID:        uuid.NewString(),
		Title:     title,
		Author:    "Author",
		Cover:     models.CoverHard,
		Inventory: inventory,
		DailyFee:  decimal.RequireFromString(fee),
	}
	require.NoError(t, f.repo.CreateBook(context.Background(), b))
	return b
}

func (f *fixture) inventory(t *testing.T, bookID string) int {
	t.Helper()
	b, err := f.repo.FindBookByID(context.Background(), bookID)
	require.NoError(t, err)
	return b.Inventory
}

func (f *fixture) borrow(t *testing.T, u *models.User, b *models.Book, days int) *models.Borrowing {
	t.Helper()
	br, err := f.borrowings.CreateBorrowing(context.Background(), CreateBorrowingInput{
		BookID:             b.ID,
		ExpectedReturnDate: f.clock().AddDate(0, 0, days),
		UserID:             u.ID,
	})
	require.NoError(t, err)
	return br
}

func (f *fixture) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.repo.DB.Unscoped().Model(model).Count(&n).Error)
	return n
}
