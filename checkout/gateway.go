// Package checkout talks to the hosted payment page provider.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// StatusPaid is the provider's payment_status for a settled session.
const StatusPaid = "paid"

type SessionRequest struct {
	Reference  string // our payment id, echoed back by the provider
	Name       string // line item label shown on the checkout page
	Amount     decimal.Decimal
	Currency   string
	SuccessURL string
	CancelURL  string
}

type Session struct {
	ID  string
	URL string
}

// Gateway opens checkout sessions and reports their payment status.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	SessionStatus(ctx context.Context, sessionID string) (string, error)
}
