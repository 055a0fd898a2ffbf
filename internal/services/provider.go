package services

import (
	"context"
	"errors"

	"trip-haven-backend/internal/models"
)

var (
	ErrProviderError        = errors.New("payment provider error")
	ErrChargeNotSettled     = errors.New("charge not settled at provider")
	ErrVerificationMismatch = errors.New("provider charge does not match session")
)

// ProviderCharge is the result of creating a charge at an external provider.
type ProviderCharge struct {
	// PaymentID is the provider-side identifier (payment intent, order id).
	PaymentID string
	// ClientSecret is handed to the hosted-script SDK; empty for redirect
	// providers.
	ClientSecret string
	// CheckoutURL is where the customer completes a redirect payment; empty
	// for hosted-script providers.
	CheckoutURL string
	// RawResponse is stored verbatim on the session for auditing.
	RawResponse string
}

// PaymentProvider talks to one external payment system. The service never
// trusts a client-reported result: every settlement claim is verified here
// against the provider's own record before the session may succeed.
type PaymentProvider interface {
	CreateCharge(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession, booking *models.Booking) (*ProviderCharge, error)
	// VerifyCharge confirms with the provider that the payment settled and
	// belongs to this session. Returns ErrChargeNotSettled when the provider
	// reports the charge incomplete and ErrVerificationMismatch when the
	// charge exists but references a different booking or amount.
	VerifyCharge(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession) (string, error)
	Refund(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession, amount *float64) (string, error)
}
