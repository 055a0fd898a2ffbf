package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
)

func TestTopicForPaymentEvent(t *testing.T) {
	cases := map[string]string{
		"payment.success":   "payment-success",
		"payment.failed":    "payment-failed",
		"payment.cancelled": "payment-cancelled",
		"payment.refunded":  "payment-refunded",
		"payment.created":   "payment-events",
		"something.else":    "payment-events",
	}

	for eventType, topic := range cases {
		assert.Equal(t, topic, topicForPaymentEvent(eventType))
	}
}

func TestMockProducerPublishes(t *testing.T) {
	p, err := NewProducer(nil, true, logger.NewLogger())
	require.NoError(t, err)
	defer p.Close()

	err = p.PublishBookingEvent(&models.BookingEvent{
		Type:      "booking.created",
		Reference: "BK250829000000001",
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)

	err = p.PublishPaymentEvent(&models.PaymentEvent{
		Type:      "payment.success",
		SessionID: "pay_1_000001",
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)
}
