package stripe

import (
	"context"
	"errors"
	"fmt"
	"math"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrNotConfigured = errors.New("payment processor not configured")

// Processor creates payment intents with the external processor.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (clientSecret string, err error)
}

// ToMinorUnits converts a major-unit price to the smallest currency unit.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

type stripeProcessor struct {
	api *client.API
}

// NewProcessor returns a Stripe-backed processor. An empty key yields a
// processor that always fails with ErrNotConfigured.
func NewProcessor(secretKey string) Processor {
	if secretKey == "" {
		return unconfigured{}
	}
	return &stripeProcessor{api: client.New(secretKey, nil)}
}

func (p *stripeProcessor) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error) {
	params := &stripego.PaymentIntentParams{
		Amount:             stripego.Int64(amount),
		Currency:           stripego.String(currency),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return intent.ClientSecret, nil
}

type unconfigured struct{}

func (unconfigured) CreatePaymentIntent(context.Context, int64, string) (string, error) {
	return "", ErrNotConfigured
}
