// Package payments wraps the charge-intent capability of the payment
// provider. The rest of the system only needs "create a charge, get a
// client secret back"; everything else about the provider stays here.
package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Intent is a created charge the client completes on its side.
type Intent struct {
	ClientSecret string
}

// Gateway creates charge intents.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64) (Intent, error)
}

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway constructs a gateway with the given secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

// CreateIntent creates a card payment intent in USD.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{ClientSecret: intent.ClientSecret}, nil
}
