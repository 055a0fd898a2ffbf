package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/storage"
)

func newGatewayFixture(t *testing.T) (*GatewayService, *storage.InMemoryStore) {
	t.Helper()
	store := storage.NewInMemoryStore()
	svc := NewGatewayService(store, logger.NewLogger())
	return svc, store
}

func seedGateway(t *testing.T, store *storage.InMemoryStore, g *models.PaymentGateway) {
	t.Helper()
	require.NoError(t, store.SaveGateway(g))
}

func TestListOptionsFiltersAndOrders(t *testing.T) {
	svc, store := newGatewayFixture(t)

	seedGateway(t, store, &models.PaymentGateway{
		Name: "banktransfer", DisplayName: "Bank Transfer", Protocol: models.ProtocolManual,
		Enabled: true, Priority: 30, Instructions: "IBAN AE07 0331 ...",
	})
	seedGateway(t, store, &models.PaymentGateway{
		Name: "stripe", DisplayName: "Pay by Card", Protocol: models.ProtocolHostedScript,
		Enabled: true, Priority: 10, Currencies: "usd, aed",
	})
	seedGateway(t, store, &models.PaymentGateway{
		Name: "legacy", DisplayName: "Legacy", Protocol: models.ProtocolRedirect,
		Enabled: false, Priority: 1,
	})

	options, err := svc.ListOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 2)

	assert.Equal(t, "stripe", options[0].Name)
	assert.True(t, options[0].RequiresSecrets)
	assert.Equal(t, []string{"USD", "AED"}, options[0].Currencies)
	assert.Empty(t, options[0].Instructions)

	assert.Equal(t, "banktransfer", options[1].Name)
	assert.Equal(t, "IBAN AE07 0331 ...", options[1].Instructions)
}

func TestListOptionsEmptyRegistry(t *testing.T) {
	svc, _ := newGatewayFixture(t)

	options, err := svc.ListOptions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestResolveForCharge(t *testing.T) {
	svc, store := newGatewayFixture(t)

	seedGateway(t, store, &models.PaymentGateway{
		Name: "stripe", Protocol: models.ProtocolHostedScript, Enabled: true,
		Currencies: "USD", MinAmount: 10, MaxAmount: 5000,
	})
	seedGateway(t, store, &models.PaymentGateway{
		Name: "paused", Protocol: models.ProtocolRedirect, Enabled: false,
	})

	gw, err := svc.ResolveForCharge(context.Background(), "stripe", 100, "usd")
	require.NoError(t, err)
	assert.Equal(t, "stripe", gw.Name)

	_, err = svc.ResolveForCharge(context.Background(), "missing", 100, "USD")
	assert.ErrorIs(t, err, ErrGatewayNotFound)

	_, err = svc.ResolveForCharge(context.Background(), "paused", 100, "USD")
	assert.ErrorIs(t, err, ErrGatewayDisabled)

	_, err = svc.ResolveForCharge(context.Background(), "stripe", 100, "EUR")
	assert.ErrorIs(t, err, ErrCurrencyUnsupported)

	_, err = svc.ResolveForCharge(context.Background(), "stripe", 5, "USD")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = svc.ResolveForCharge(context.Background(), "stripe", 6000, "USD")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestCreateGatewayValidatesProtocol(t *testing.T) {
	svc, _ := newGatewayFixture(t)

	_, err := svc.CreateGateway(context.Background(), &models.GatewayUpsertRequest{
		Name: "weird", DisplayName: "Weird", Protocol: "carrier_pigeon",
	})
	assert.ErrorIs(t, err, ErrInvalidProtocol)

	gw, err := svc.CreateGateway(context.Background(), &models.GatewayUpsertRequest{
		Name: "  Stripe ", DisplayName: "Pay by Card", Protocol: "hosted_script", Enabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "stripe", gw.Name)
	assert.NotZero(t, gw.ID)
}
