// controllers/srv.go
package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"library_borrowing_service/app"
	"library_borrowing_service/db"
	"library_borrowing_service/notify"
	"library_borrowing_service/services"
	"library_borrowing_service/session"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo       *db.Repo
	Books      *services.Books
	Borrowings *services.Borrowings
	Payments   *services.Payments
	Users      *services.Users
	Sweeper    *services.Sweeper
	Hub        *notify.Hub
	Log        *slog.Logger
}

func GetSrv(a *app.App) *Srv {
	payments := services.NewPayments(a.Repo, a.Gateway, a.Notifier, a.Log, services.PaymentConfig{
		PublicURL: a.Config.PublicURL,
		Currency:  a.Config.Currency,
		Timeout:   a.Config.CheckoutTimeout,
	})
	return &Srv{
		Repo:       a.Repo,
		Books:      services.NewBooks(a.Repo),
		Borrowings: services.NewBorrowings(a.Repo, payments, a.Log),
		Payments:   payments,
		Users:      services.NewUsers(a.Repo, a.Tokens, a.Revoked),
		Sweeper:    services.NewSweeper(a.Repo, a.Notifier, session.NewLock(a.RDB), a.Log),
		Hub:        a.Hub,
		Log:        a.Log,
	}
}

// --- helpers ---

func requester(c *gin.Context) services.Requester {
	return services.Requester{
		UserID:  c.GetString(app.CtxUserID),
		IsStaff: c.GetBool(app.CtxIsStaff),
	}
}

func claims(c *gin.Context) *session.Claims {
	v, _ := c.Get(app.CtxClaims)
	cl, _ := v.(*session.Claims)
	return cl
}

func queryBool(c *gin.Context, k string) *bool {
	v := c.Query(k)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// 统一错误输出
func (s *Srv) writeError(c *gin.Context, err error) {
	var (
		verr *services.ValidationError
		cerr *services.ConflictError
		gerr *services.GatewayError
		ierr *services.InvariantViolation
	)
	switch {
	case errors.As(err, &verr):
		body := app.H{"error": verr.Message}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &cerr):
		c.JSON(http.StatusBadRequest, app.H{"error": cerr.Message})
	case errors.Is(err, services.ErrPaymentNotCompleted):
		c.JSON(http.StatusBadRequest, app.H{"error": "Payment was not successful."})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, app.H{"error": err.Error()})
	case errors.Is(err, services.ErrSweepInProgress):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.As(err, &gerr):
		s.Log.Error("checkout provider", "op", gerr.Op, "err", gerr.Err)
		c.JSON(http.StatusBadGateway, app.H{"error": "payment provider unavailable"})
	case errors.As(err, &ierr):
		s.Log.Error("invariant violated", "err", ierr)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	default:
		s.Log.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	}
}
