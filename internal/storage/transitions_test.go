package storage

import (
	"testing"

	"trip-haven-backend/internal/models"
)

func TestValidBookingTransition(t *testing.T) {
	cases := []struct {
		from  models.BookingStatus
		to    models.BookingStatus
		valid bool
	}{
		{models.BookingPending, models.BookingConfirmed, true},
		{models.BookingPending, models.BookingCancelled, true},
		{models.BookingPending, models.BookingCompleted, false},
		{models.BookingConfirmed, models.BookingCompleted, true},
		{models.BookingConfirmed, models.BookingCancelled, true},
		{models.BookingConfirmed, models.BookingPending, false},
		{models.BookingCompleted, models.BookingCancelled, false},
		{models.BookingCompleted, models.BookingConfirmed, false},
		{models.BookingCancelled, models.BookingPending, false},
		{models.BookingCancelled, models.BookingConfirmed, false},
		{models.BookingPending, models.BookingPending, false},
	}

	for _, tt := range cases {
		if got := ValidBookingTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidBookingTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestValidPaymentTransition(t *testing.T) {
	cases := []struct {
		from  models.PaymentState
		to    models.PaymentState
		valid bool
	}{
		{models.PaymentPending, models.PaymentCompleted, true},
		{models.PaymentPending, models.PaymentFailed, true},
		{models.PaymentFailed, models.PaymentPending, true},
		{models.PaymentFailed, models.PaymentCompleted, true},
		{models.PaymentCompleted, models.PaymentPending, false},
		{models.PaymentCompleted, models.PaymentFailed, false},
		{models.PaymentPending, models.PaymentPending, false},
	}

	for _, tt := range cases {
		if got := ValidPaymentTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidPaymentTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}
