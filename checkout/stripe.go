package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var hundred = decimal.NewFromInt(100)

// StripeGateway is a Gateway backed by Stripe Checkout. Each instance carries its own
// API client; nothing is configured through stripe package globals.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a client for key. httpClient may be nil.
func NewStripeGateway(key string, httpClient *http.Client) *StripeGateway {
	return &StripeGateway{api: client.New(key, stripe.NewBackends(httpClient))}
}

// newStripeGatewayWithBackend points the client at a custom API base URL.
func newStripeGatewayWithBackend(key, baseURL string, httpClient *http.Client) *StripeGateway {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(baseURL),
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &StripeGateway{api: client.New(key, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if !req.Amount.IsPositive() {
		return nil, errors.New("checkout amount must be positive")
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Name),
					},
					UnitAmount: stripe.Int64(req.Amount.Mul(hundred).Round(0).IntPart()),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) SessionStatus(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("stripe: retrieve checkout session %s: %w", sessionID, err)
	}
	return string(s.PaymentStatus), nil
}
