package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
)

// recordingBackend stands in for the Stripe transport and captures the
// context each SDK call carries. Responses stay zero-valued.
type recordingBackend struct {
	ctxs []context.Context
}

func (b *recordingBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	var ctx context.Context
	if p := params.GetParams(); p != nil {
		ctx = p.Context
	}
	b.ctxs = append(b.ctxs, ctx)
	return nil
}

func (b *recordingBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (b *recordingBackend) CallRaw(method, path, key string, body []byte, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (b *recordingBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (b *recordingBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func newRecordedStripeProvider() (*StripeProvider, *recordingBackend) {
	backend := &recordingBackend{}
	p := NewStripeProvider(logger.NewLogger())
	p.newClient = func(secret string) *client.API {
		return client.New(secret, &stripe.Backends{API: backend})
	}
	return p, backend
}

// The orchestrator bounds provider calls with a deadline; every SDK call
// must carry it, or a stalled Stripe request outlives the timeout.
func TestStripeProviderCarriesCallerDeadline(t *testing.T) {
	p, backend := newRecordedStripeProvider()

	gw := &models.PaymentGateway{Name: "stripe", Protocol: models.ProtocolHostedScript, APISecret: "sk_test_key"}
	session := &models.PaymentSession{
		SessionID:        "pay_ctx_check",
		BookingReference: "BK260829123456001",
		GatewayPaymentID: "pi_123",
		Amount:           262.5,
		Currency:         "USD",
	}
	booking := &models.Booking{Reference: "BK260829123456001", ServiceTitle: "Desert Safari", CustomerEmail: "amal@example.com"}

	deadline := time.Now().Add(5 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	_, err := p.CreateCharge(ctx, gw, session, booking)
	require.NoError(t, err)

	// The stub returns a zero-valued intent, which reads as not settled.
	_, err = p.VerifyCharge(ctx, gw, session)
	assert.ErrorIs(t, err, ErrChargeNotSettled)

	_, err = p.Refund(ctx, gw, session, nil)
	require.NoError(t, err)

	require.Len(t, backend.ctxs, 3)
	for i, got := range backend.ctxs {
		require.NotNil(t, got, "call %d carried no context", i)
		d, ok := got.Deadline()
		require.True(t, ok, "call %d carried no deadline", i)
		assert.WithinDuration(t, deadline, d, time.Second)
	}
}
