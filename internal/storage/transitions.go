package storage

import "trip-haven-backend/internal/models"

// The two status axes are independent: a booking can be confirmed while a
// bank transfer is still settling. completed and cancelled are terminal on
// the booking axis; a failed payment may be retried.

var bookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCompleted, models.BookingCancelled},
}

var paymentTransitions = map[models.PaymentState][]models.PaymentState{
	models.PaymentPending: {models.PaymentCompleted, models.PaymentFailed},
	models.PaymentFailed:  {models.PaymentPending, models.PaymentCompleted},
}

func ValidBookingTransition(from, to models.BookingStatus) bool {
	for _, status := range bookingTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

func ValidPaymentTransition(from, to models.PaymentState) bool {
	for _, state := range paymentTransitions[from] {
		if state == to {
			return true
		}
	}
	return false
}
