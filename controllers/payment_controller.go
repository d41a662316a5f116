package controllers

import (
	"net/http"
	"strings"

	"library_borrowing_service/app"
	"library_borrowing_service/models"
	"library_borrowing_service/services"

	"github.com/gin-gonic/gin"
)

type PaymentController struct{ *Srv }

func NewPaymentController(s *Srv) *PaymentController { return &PaymentController{Srv: s} }

// GET /payments/?status=&type=
func (pc *PaymentController) ListPayments(c *gin.Context) {
	ps, err := pc.Payments.List(c.Request.Context(), requester(c), services.PaymentFilter{
		Status: models.PaymentStatus(strings.ToUpper(c.Query("status"))),
		Type:   models.PaymentType(strings.ToUpper(c.Query("type"))),
	})
	if err != nil {
		pc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": ps})
}

func (pc *PaymentController) GetPayment(c *gin.Context) {
	p, err := pc.Payments.Get(c.Request.Context(), c.Param("id"), requester(c))
	if err != nil {
		pc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /payments/:id/success: provider redirect target
func (pc *PaymentController) PaymentSuccess(c *gin.Context) {
	p, err := pc.Payments.Reconcile(c.Request.Context(), c.Param("id"), requester(c))
	if err != nil {
		pc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": "Payment was successful.", "payment": p})
}

// GET /payments/:id/cancel
func (pc *PaymentController) PaymentCancel(c *gin.Context) {
	p, err := pc.Payments.CancelSession(c.Request.Context(), c.Param("id"), requester(c))
	if err != nil {
		pc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"message": "Payment can be made later.", "session_url": p.SessionURL})
}

// POST /payments/:id/checkout: (re)open a session for a pending payment
func (pc *PaymentController) Checkout(c *gin.Context) {
	p, err := pc.Payments.Checkout(c.Request.Context(), c.Param("id"), requester(c))
	if err != nil {
		pc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
