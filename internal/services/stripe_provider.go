package services

import (
	"context"
	"encoding/json"
	"fmt"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeProvider implements the hosted-script protocol through Stripe payment
// intents. Each gateway row carries its own secret key, so the client is
// constructed per call rather than held globally.
type StripeProvider struct {
	log *logger.Logger

	// newClient is swappable in tests.
	newClient func(secret string) *client.API
}

func NewStripeProvider(log *logger.Logger) *StripeProvider {
	return &StripeProvider{
		log: log,
		newClient: func(secret string) *client.API {
			return client.New(secret, nil)
		},
	}
}

// CreateCharge opens a payment intent that the browser-side SDK confirms.
// The booking reference and session id go into the intent metadata so that
// verification can later prove the intent belongs to this session.
func (p *StripeProvider) CreateCharge(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession, booking *models.Booking) (*ProviderCharge, error) {
	if gw.APISecret == "" {
		return nil, fmt.Errorf("%w: gateway %s has no secret key configured", ErrProviderError, gw.Name)
	}
	sc := p.newClient(gw.APISecret)

	params := &stripe.PaymentIntentParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(toMinorUnits(session.Amount)),
		Currency:    stripe.String(session.Currency),
		Description: stripe.String(fmt.Sprintf("%s booking %s", booking.ServiceTitle, booking.Reference)),
		Metadata: map[string]string{
			"booking_reference": booking.Reference,
			"session_id":        session.SessionID,
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(booking.CustomerEmail),
	}

	p.log.LogPayment("STRIPE", session.SessionID, fmt.Sprintf("Creating payment intent for booking %s, amount %.2f %s",
		booking.Reference, session.Amount, session.Currency))

	pi, err := sc.PaymentIntents.New(params)
	if err != nil {
		p.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	p.log.LogPayment("STRIPE", session.SessionID, fmt.Sprintf("Payment intent created: %s", pi.ID))

	return &ProviderCharge{
		PaymentID:    pi.ID,
		ClientSecret: pi.ClientSecret,
		RawResponse:  marshalAudit(pi),
	}, nil
}

// VerifyCharge re-reads the intent from Stripe and checks that it succeeded
// and still references this session's booking and amount.
func (p *StripeProvider) VerifyCharge(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession) (string, error) {
	sc := p.newClient(gw.APISecret)

	pi, err := sc.PaymentIntents.Get(session.GatewayPaymentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		p.log.Error("STRIPE", fmt.Sprintf("Failed to retrieve payment intent %s: %v", session.GatewayPaymentID, err))
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		p.log.LogPayment("STRIPE", session.SessionID, fmt.Sprintf("Intent %s not settled, status %s", pi.ID, pi.Status))
		return marshalAudit(pi), ErrChargeNotSettled
	}
	if pi.Metadata["booking_reference"] != session.BookingReference {
		p.log.LogSecurity("VERIFY_MISMATCH", fmt.Sprintf("Intent %s carries reference %q, session expects %q",
			pi.ID, pi.Metadata["booking_reference"], session.BookingReference))
		return marshalAudit(pi), ErrVerificationMismatch
	}
	if pi.Amount != toMinorUnits(session.Amount) {
		p.log.LogSecurity("VERIFY_MISMATCH", fmt.Sprintf("Intent %s settled %d minor units, session expects %d",
			pi.ID, pi.Amount, toMinorUnits(session.Amount)))
		return marshalAudit(pi), ErrVerificationMismatch
	}

	p.log.LogPayment("STRIPE", session.SessionID, fmt.Sprintf("Intent %s verified as settled", pi.ID))
	return marshalAudit(pi), nil
}

func (p *StripeProvider) Refund(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession, amount *float64) (string, error) {
	sc := p.newClient(gw.APISecret)

	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(session.GatewayPaymentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if amount != nil {
		params.Amount = stripe.Int64(toMinorUnits(*amount))
		p.log.LogPayment("REFUND", session.SessionID, fmt.Sprintf("Refunding partial amount: %.2f", *amount))
	} else {
		p.log.LogPayment("REFUND", session.SessionID, "Refunding full amount")
	}

	refund, err := sc.Refunds.New(params)
	if err != nil {
		p.log.Error("STRIPE", fmt.Sprintf("Refund failed: %v", err))
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	p.log.LogPayment("REFUND", session.SessionID, fmt.Sprintf("Refund accepted, refund ID: %s", refund.ID))
	return refund.ID, nil
}

// toMinorUnits converts a major-unit amount to the smallest currency unit.
func toMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

func marshalAudit(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
