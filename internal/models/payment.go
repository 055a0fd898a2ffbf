package models

import (
	"time"
)

type SessionState string

const (
	SessionAwaitingAction SessionState = "awaiting_action"
	SessionVerifying      SessionState = "verifying"
	SessionSucceeded      SessionState = "succeeded"
	SessionFailed         SessionState = "failed"
	SessionCancelled      SessionState = "cancelled"
	SessionRefunded       SessionState = "refunded"
)

// Terminal reports whether no further transition is possible for the session.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionSucceeded, SessionFailed, SessionCancelled, SessionRefunded:
		return true
	}
	return false
}

type FailureKind string

const (
	FailureDeclined             FailureKind = "declined"
	FailureTimeout              FailureKind = "timeout"
	FailureProviderError        FailureKind = "provider_error"
	FailureVerificationMismatch FailureKind = "verification_mismatch"
)

// PaymentSession is one payment attempt against a booking. A booking may
// accumulate several sessions (cancelled or failed attempts are retryable).
type PaymentSession struct {
	SessionID        string          `json:"session_id"`
	BookingID        int64           `json:"booking_id"`
	BookingReference string          `json:"booking_reference"`
	Gateway          string          `json:"gateway"`
	Protocol         GatewayProtocol `json:"protocol"`
	State            SessionState    `json:"state"`
	Amount           float64         `json:"amount"`
	Currency         string          `json:"currency"`

	GatewayPaymentID string      `json:"gateway_payment_id,omitempty"`
	FailureKind      FailureKind `json:"failure_kind,omitempty"`
	RawResponse      string      `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the bounded wait for the external action elapsed.
func (p *PaymentSession) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

type InitiatePaymentRequest struct {
	BookingReference string `json:"booking_reference" binding:"required"`
	Gateway          string `json:"gateway" binding:"required"`
}

// CheckoutData carries everything the hosted-script SDK needs to open its
// modal. The secret key never appears here.
type CheckoutData struct {
	Provider      string  `json:"provider"`
	PublicKey     string  `json:"public_key"`
	ClientSecret  string  `json:"client_secret"`
	Reference     string  `json:"reference"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	Description   string  `json:"description,omitempty"`
}

type InitiatePaymentResponse struct {
	SessionID      string        `json:"session_id"`
	State          SessionState  `json:"state"`
	RequiresAction bool          `json:"requires_action"`
	CheckoutData   *CheckoutData `json:"checkout_data,omitempty"`
	CheckoutURL    string        `json:"checkout_url,omitempty"`
	Instructions   string        `json:"instructions,omitempty"`
	PaymentID      string        `json:"payment_id,omitempty"`
	Message        string        `json:"message,omitempty"`
}

type CompletePaymentRequest struct {
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
}

type RefundPaymentRequest struct {
	BookingReference string   `json:"booking_reference" binding:"required"`
	Amount           *float64 `json:"amount,omitempty"`
	Reason           string   `json:"reason,omitempty"`
}

type PaymentEvent struct {
	Type             string          `json:"type"`
	SessionID        string          `json:"session_id"`
	BookingReference string          `json:"booking_reference"`
	Session          *PaymentSession `json:"session"`
	Timestamp        time.Time       `json:"timestamp"`
}
