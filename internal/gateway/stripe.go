// Package gateway adapts the Stripe payment-intents API to the payment
// workflow.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/workhive/backend/internal/apperr"
)

// Stripe creates and verifies card payment intents.
type Stripe struct {
	intents  paymentintent.Client
	currency string
	logger   *slog.Logger
}

// NewStripe returns a gateway talking to the live Stripe API with key.
func NewStripe(key, currency string, logger *slog.Logger) *Stripe {
	return NewStripeWithBackend(stripe.GetBackend(stripe.APIBackend), key, currency, logger)
}

// NewStripeWithBackend lets callers point the client at another backend,
// such as a local test server.
func NewStripeWithBackend(b stripe.Backend, key, currency string, logger *slog.Logger) *Stripe {
	if logger == nil {
		logger = slog.Default()
	}
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Stripe{
		intents:  paymentintent.Client{B: b, Key: key},
		currency: currency,
		logger:   logger,
	}
}

// CreateIntent opens a payment intent and returns its client secret.
func (s *Stripe) CreateIntent(ctx context.Context, amountCents int64, email string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("email", email)

	pi, err := s.intents.New(params)
	if err != nil {
		s.logger.Error("stripe create intent", "error", err, "email", email)
		return "", fmt.Errorf("%w: payment gateway: %v", apperr.ErrUnavailable, err)
	}
	return pi.ClientSecret, nil
}

// VerifyIntent checks that intentID succeeded for exactly amountCents in the
// configured currency, and that it was opened for email.
func (s *Stripe) VerifyIntent(ctx context.Context, intentID string, amountCents int64, email string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.intents.Get(intentID, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.HTTPStatusCode == http.StatusNotFound {
			return apperr.Validationf("unknown payment intent %q", intentID)
		}
		s.logger.Error("stripe get intent", "error", err, "intent_id", intentID)
		return fmt.Errorf("%w: payment gateway: %v", apperr.ErrUnavailable, err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return apperr.Validationf("payment intent %q is %s", intentID, pi.Status)
	}
	if pi.Amount != amountCents {
		return apperr.Validationf("payment intent %q charged %d cents, not %d", intentID, pi.Amount, amountCents)
	}
	if !strings.EqualFold(string(pi.Currency), s.currency) {
		return apperr.Validationf("payment intent %q is in %s, not %s", intentID, pi.Currency, s.currency)
	}
	owner := strings.ToLower(strings.TrimSpace(pi.Metadata["email"]))
	if owner == "" || owner != strings.ToLower(strings.TrimSpace(email)) {
		return apperr.Forbiddenf("payment intent %q belongs to another account", intentID)
	}
	return nil
}
