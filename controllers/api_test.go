package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"library_borrowing_service/app"
	"library_borrowing_service/checkout"
	"library_borrowing_service/controllers"
	"library_borrowing_service/db"
	"library_borrowing_service/models"
	"library_borrowing_service/routes"
	"library_borrowing_service/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	mu      sync.Mutex
	fail    bool
	status  string
	counter int
}

func (g *stubGateway) CreateSession(_ context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, errors.New("stripe unavailable")
	}
	g.counter++
	id := fmt.Sprintf("cs_%d", g.counter)
	return &checkout.Session{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (g *stubGateway) SessionStatus(context.Context, string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, nil
}

func (g *stubGateway) set(fail bool, status string) {
	g.mu.Lock()
	g.fail, g.status = fail, status
	g.mu.Unlock()
}

type testServer struct {
	*httptest.Server
	srv *controllers.Srv
	gw  *stubGateway
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := &stubGateway{status: "unpaid"}
	a := app.New(app.Config{
		WebOrigin:       "http://localhost:3000",
		PublicURL:       "http://library.test",
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		Currency:        "usd",
		CheckoutTimeout: time.Second,
	}, db.NewTestDB(t), rdb, gw, log)

	srv := controllers.GetSrv(a)
	routes.RegisterRoutes(a, srv)
	server := httptest.NewServer(a.Router)
	t.Cleanup(server.Close)
	return &testServer{Server: server, srv: srv, gw: gw}
}

// do sends a JSON request and decodes the JSON reply into out when given.
func (ts *testServer) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	var res struct {
		Token string `json:"token"`
	}
	code := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &res)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (ts *testServer) staffToken(t *testing.T) string {
	t.Helper()
	_, err := ts.srv.Users.CreateStaff(context.Background(), services.RegisterInput{
		Email: "staff@library.test", Password: "staff-password",
	})
	require.NoError(t, err)
	return ts.login(t, "staff@library.test", "staff-password")
}

func (ts *testServer) readerToken(t *testing.T, email string) string {
	t.Helper()
	code := ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "reader-password", "first_name": "Ada",
	}, nil)
	require.Equal(t, http.StatusCreated, code)
	return ts.login(t, email, "reader-password")
}

func (ts *testServer) createBook(t *testing.T, staff string, inventory int) models.Book {
	t.Helper()
	var b models.Book
	code := ts.do(t, http.MethodPost, "/books/", staff, map[string]any{
		"title": "Dune", "author": "Frank Herbert", "cover": "HARD", "inventory": inventory, "daily_fee": "2.00",
	}, &b)
	require.Equal(t, http.StatusCreated, code)
	return b
}

func dueIn(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func TestHealthz(t *testing.T) {
	ts := setupTestServer(t)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", "", nil, nil))
}

func TestAuthFlow(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.readerToken(t, "reader@library.test")

	var me models.User
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/auth/me", token, nil, &me))
	assert.Equal(t, "reader@library.test", me.Email)

	var errBody map[string]string
	code := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "reader@library.test", "password": "nope"}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, code)

	code = ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "reader@library.test", "password": "reader-password"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email", errBody["field"])

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/auth/me", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/auth/me", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/auth/me", "garbage", nil, nil))
}

func TestBooksPermissions(t *testing.T) {
	ts := setupTestServer(t)
	staff := ts.staffToken(t)
	reader := ts.readerToken(t, "reader@library.test")

	book := ts.createBook(t, staff, 3)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, "/books/", reader, map[string]any{"title": "x"}, nil))
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodDelete, "/books/"+book.ID, "", nil, nil))

	var page db.PagedBooks
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/books/", "", nil, &page))
	assert.Equal(t, int64(1), page.Total)

	var updated models.Book
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPatch, "/books/"+book.ID, staff, map[string]any{"inventory": 5}, &updated))
	assert.Equal(t, 5, updated.Inventory)

	var errBody map[string]string
	code := ts.do(t, http.MethodPost, "/books/", staff, map[string]any{
		"title": "Dune", "author": "Frank Herbert", "cover": "SPIRAL", "inventory": 1, "daily_fee": "1",
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "cover", errBody["field"])

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/books/"+book.ID, staff, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/books/"+book.ID, "", nil, nil))
}

func TestBorrowingAndPaymentFlow(t *testing.T) {
	ts := setupTestServer(t)
	staff := ts.staffToken(t)
	reader := ts.readerToken(t, "reader@library.test")
	book := ts.createBook(t, staff, 1)

	// borrow the only copy
	var br models.Borrowing
	code := ts.do(t, http.MethodPost, "/borrowings/", reader, map[string]string{
		"book": book.ID, "expected_return_date": dueIn(5),
	}, &br)
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, br.Payments, 1)
	rent := br.Payments[0]
	assert.Equal(t, "https://checkout.test/cs_1", rent.SessionURL)
	assert.Equal(t, "10", rent.MoneyToPay.String())

	var errBody map[string]string
	code = ts.do(t, http.MethodPost, "/borrowings/", reader, map[string]string{
		"book": book.ID, "expected_return_date": dueIn(5),
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Book is not available for borrowing.", errBody["error"])

	// provider says not paid yet
	code = ts.do(t, http.MethodGet, "/payments/"+rent.ID+"/success", reader, nil, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Payment was not successful.", errBody["error"])

	var cancelled map[string]string
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/payments/"+rent.ID+"/cancel", reader, nil, &cancelled))
	assert.Equal(t, "Payment can be made later.", cancelled["message"])

	ts.gw.set(false, "paid")
	var paid struct {
		Payment models.Payment `json:"payment"`
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/payments/"+rent.ID+"/success", reader, nil, &paid))
	assert.Equal(t, models.PaymentPaid, paid.Payment.Status)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/payments/"+rent.ID+"/success", reader, nil, nil))

	var logs struct {
		Items []models.NotificationLog `json:"items"`
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/notifications?kind=payment", staff, nil, &logs))
	assert.Len(t, logs.Items, 1, "one notification for two successful reconciliations")
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/notifications", reader, nil, nil))

	// the book cannot be removed while it has history
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodDelete, "/books/"+book.ID, staff, nil, nil))

	// return, then return again
	var returned map[string]any
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/borrowings/"+br.ID+"/return", reader, nil, &returned))
	assert.Equal(t, "Your book was successfully returned", returned["success"])
	assert.NotContains(t, returned, "fine")

	code = ts.do(t, http.MethodPost, "/borrowings/"+br.ID+"/return", reader, nil, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Book has already been returned", errBody["error"])

	var got models.Book
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/books/"+book.ID, "", nil, &got))
	assert.Equal(t, 1, got.Inventory)
}

func TestBorrowingVisibilityOverHTTP(t *testing.T) {
	ts := setupTestServer(t)
	staff := ts.staffToken(t)
	alice := ts.readerToken(t, "alice@library.test")
	bob := ts.readerToken(t, "bob@library.test")
	book := ts.createBook(t, staff, 5)

	var br models.Borrowing
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/borrowings/", alice, map[string]string{
		"book": book.ID, "expected_return_date": dueIn(2),
	}, &br))

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/borrowings/"+br.ID, bob, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/payments/"+br.Payments[0].ID, bob, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/borrowings/"+br.ID+"/return", bob, nil, nil))

	var list struct {
		Items []models.Borrowing `json:"items"`
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/borrowings/?is_active=true", bob, nil, &list))
	assert.Empty(t, list.Items)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/borrowings/?is_active=true&user_id="+br.UserID, staff, nil, &list))
	assert.Len(t, list.Items, 1)
}

func TestBorrowingGatewayDown(t *testing.T) {
	ts := setupTestServer(t)
	staff := ts.staffToken(t)
	reader := ts.readerToken(t, "reader@library.test")
	book := ts.createBook(t, staff, 1)

	ts.gw.set(true, "")
	code := ts.do(t, http.MethodPost, "/borrowings/", reader, map[string]string{
		"book": book.ID, "expected_return_date": dueIn(3),
	}, nil)
	assert.Equal(t, http.StatusBadGateway, code)

	var got models.Book
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/books/"+book.ID, "", nil, &got))
	assert.Equal(t, 1, got.Inventory)

	var list struct {
		Items []models.Borrowing `json:"items"`
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/borrowings/", reader, nil, &list))
	assert.Empty(t, list.Items)
}

func TestBorrowingBadDate(t *testing.T) {
	ts := setupTestServer(t)
	staff := ts.staffToken(t)
	reader := ts.readerToken(t, "reader@library.test")
	book := ts.createBook(t, staff, 1)

	var errBody map[string]string
	code := ts.do(t, http.MethodPost, "/borrowings/", reader, map[string]string{
		"book": book.ID, "expected_return_date": "next week",
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "expected_return_date", errBody["field"])

	code = ts.do(t, http.MethodPost, "/borrowings/", reader, map[string]string{
		"book": book.ID, "expected_return_date": dueIn(0),
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "expected_return_date", errBody["field"])
}

func TestUsersAdmin(t *testing.T) {
	ts := setupTestServer(t)
	staff := ts.staffToken(t)
	reader := ts.readerToken(t, "reader@library.test")

	var me models.User
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/auth/me", reader, nil, &me))

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/users", reader, nil, nil))

	var res struct {
		User models.User `json:"user"`
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPatch, "/users/"+me.ID+"/staff", staff, map[string]bool{"is_staff": true}, &res))
	assert.True(t, res.User.IsStaff)

	// staff status is read per request, the old token now has staff rights
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/users", reader, nil, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/users/not-a-uuid", staff, nil, nil))
}

func TestRunSweepEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	staff := ts.staffToken(t)

	var res services.SweepResult
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/notifications/sweep", staff, nil, &res))
	assert.Zero(t, res.Found)
}
