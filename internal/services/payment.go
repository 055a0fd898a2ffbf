package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trip-haven-backend/internal/config"
	"trip-haven-backend/internal/kafka"
	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/storage"
	"trip-haven-backend/internal/utils"
)

var (
	ErrBookingNotPayable = errors.New("booking cannot accept a payment")
	ErrPaymentInProgress = errors.New("a payment attempt is already in progress")
	ErrSessionNotFound   = errors.New("payment session not found")
	ErrSessionClosed     = errors.New("payment session already closed")
	ErrSessionExpired    = errors.New("payment session expired")
	ErrNoProvider        = errors.New("no provider registered for protocol")
	ErrNotRefundable     = errors.New("payment not refundable")
)

// PaymentService orchestrates payment attempts against bookings. Every
// attempt is a server-side session walking awaiting_action -> verifying ->
// a terminal state; the client never decides the outcome, the provider does.
type PaymentService struct {
	store     storage.Store
	gateways  *GatewayService
	producer  *kafka.Producer
	providers map[models.GatewayProtocol]PaymentProvider
	cfg       config.PaymentConfig
	log       *logger.Logger

	now func() time.Time
}

func NewPaymentService(store storage.Store, gateways *GatewayService, producer *kafka.Producer, cfg config.PaymentConfig, log *logger.Logger) *PaymentService {
	return &PaymentService{
		store:     store,
		gateways:  gateways,
		producer:  producer,
		providers: make(map[models.GatewayProtocol]PaymentProvider),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

func (s *PaymentService) RegisterProvider(protocol models.GatewayProtocol, p PaymentProvider) {
	s.providers[protocol] = p
}

// InitiatePayment opens a payment session for the booking on the chosen
// gateway. Only one non-terminal session may exist per booking; an expired
// leftover is failed in place and a fresh attempt is allowed.
func (s *PaymentService) InitiatePayment(ctx context.Context, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	booking, err := s.store.GetBookingByReference(req.BookingReference)
	if err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if !booking.Payable() {
		return nil, ErrBookingNotPayable
	}

	if prev, err := s.store.GetLatestSessionByBooking(booking.ID); err == nil && !prev.State.Terminal() {
		if !prev.Expired(s.now()) {
			return nil, ErrPaymentInProgress
		}
		s.failSession(prev, models.FailureTimeout, "")
	}

	gw, err := s.gateways.ResolveForCharge(ctx, req.Gateway, booking.FinalAmount, booking.Currency)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.PaymentSession{
		SessionID:        utils.GenerateSessionID(),
		BookingID:        booking.ID,
		BookingReference: booking.Reference,
		Gateway:          gw.Name,
		Protocol:         gw.Protocol,
		State:            models.SessionAwaitingAction,
		Amount:           booking.FinalAmount,
		Currency:         booking.Currency,
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpiresAt:        now.Add(s.cfg.SessionTTL),
	}

	resp := &models.InitiatePaymentResponse{
		SessionID:      session.SessionID,
		State:          session.State,
		RequiresAction: true,
	}

	switch gw.Protocol {
	case models.ProtocolManual:
		// Settlement happens entirely outside the system: the attempt
		// resolves now, the booking is confirmed, and payment_status stays
		// pending until staff record the money.
		session.State = models.SessionSucceeded
		session.GatewayPaymentID = utils.GenerateTransactionID()
		resp.State = session.State
		resp.RequiresAction = false
		resp.Instructions = gw.Instructions
		resp.PaymentID = session.GatewayPaymentID
		resp.Message = "Booking confirmed; settle per the payment instructions"

	case models.ProtocolHostedScript, models.ProtocolRedirect:
		provider, ok := s.providers[gw.Protocol]
		if !ok {
			return nil, ErrNoProvider
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()

		charge, err := provider.CreateCharge(callCtx, gw, session, booking)
		if err != nil {
			return nil, err
		}
		session.GatewayPaymentID = charge.PaymentID
		session.RawResponse = charge.RawResponse

		if gw.Protocol == models.ProtocolHostedScript {
			resp.CheckoutData = &models.CheckoutData{
				Provider:      gw.Name,
				PublicKey:     gw.APIKey,
				ClientSecret:  charge.ClientSecret,
				Reference:     booking.Reference,
				Amount:        session.Amount,
				Currency:      session.Currency,
				CustomerName:  booking.CustomerName,
				CustomerEmail: booking.CustomerEmail,
				Description:   fmt.Sprintf("%s booking %s", booking.ServiceTitle, booking.Reference),
			}
		} else {
			resp.CheckoutURL = charge.CheckoutURL
		}
		resp.PaymentID = charge.PaymentID

	default:
		return nil, ErrInvalidProtocol
	}

	if err := s.store.SaveSession(session); err != nil {
		return nil, fmt.Errorf("failed to save payment session: %w", err)
	}
	if err := s.store.UpdatePaymentTrace(booking.ID, gw.Name, session.GatewayPaymentID, session.RawResponse); err != nil {
		s.log.Warn("PAYMENT", fmt.Sprintf("Failed to record payment trace on %s: %v", booking.Reference, err))
	}

	if gw.Protocol == models.ProtocolManual {
		s.confirmBooking(booking)
		s.publishPaymentEvent("payment.manual", session)
	}

	s.log.LogPayment("INITIATE", session.SessionID, fmt.Sprintf("Gateway %s (%s) for booking %s, %.2f %s",
		gw.Name, gw.Protocol, booking.Reference, session.Amount, session.Currency))
	return resp, nil
}

// CompletePayment is called after the customer's external action. The claim
// is verified against the provider before anything succeeds. Re-completing an
// already succeeded session is a no-op.
func (s *PaymentService) CompletePayment(ctx context.Context, sessionID string, req *models.CompletePaymentRequest) (*models.PaymentSession, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load payment session: %w", err)
	}

	if session.State == models.SessionSucceeded {
		return session, nil
	}
	if session.State.Terminal() {
		return nil, ErrSessionClosed
	}
	if session.Expired(s.now()) {
		s.failSession(session, models.FailureTimeout, "")
		s.markBookingPaymentFailed(session)
		return nil, ErrSessionExpired
	}

	if req != nil && req.GatewayPaymentID != "" {
		// Redirect gateways hand the provider id back through the customer.
		session.GatewayPaymentID = req.GatewayPaymentID
	}

	session.State = models.SessionVerifying
	session.UpdatedAt = s.now()
	if err := s.store.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("failed to update payment session: %w", err)
	}

	provider, ok := s.providers[session.Protocol]
	if !ok {
		return nil, ErrNoProvider
	}
	gw, err := s.store.GetGatewayByName(session.Gateway)
	if err != nil {
		return nil, fmt.Errorf("failed to load gateway %s: %w", session.Gateway, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	raw, verifyErr := provider.VerifyCharge(callCtx, gw, session)

	switch {
	case verifyErr == nil:
		session.State = models.SessionSucceeded
		session.RawResponse = raw
		session.UpdatedAt = s.now()
		if err := s.store.UpdateSession(session); err != nil {
			return nil, fmt.Errorf("failed to update payment session: %w", err)
		}
		s.settleBooking(session, raw)
		s.publishPaymentEvent("payment.success", session)
		s.log.LogPayment("COMPLETE", session.SessionID, fmt.Sprintf("Booking %s paid via %s",
			session.BookingReference, session.Gateway))
		return session, nil

	case errors.Is(verifyErr, ErrChargeNotSettled):
		// The provider has not settled yet; the customer may retry until
		// the session expires.
		session.State = models.SessionAwaitingAction
		session.UpdatedAt = s.now()
		if err := s.store.UpdateSession(session); err != nil {
			return nil, fmt.Errorf("failed to update payment session: %w", err)
		}
		return nil, ErrChargeNotSettled

	case errors.Is(verifyErr, ErrVerificationMismatch):
		s.failSession(session, models.FailureVerificationMismatch, raw)
		s.markBookingPaymentFailed(session)
		return nil, ErrVerificationMismatch

	case errors.Is(verifyErr, context.DeadlineExceeded):
		s.failSession(session, models.FailureTimeout, "")
		s.markBookingPaymentFailed(session)
		return nil, fmt.Errorf("%w: provider verification timed out", ErrProviderError)

	default:
		s.failSession(session, models.FailureProviderError, raw)
		s.markBookingPaymentFailed(session)
		return nil, verifyErr
	}
}

// CancelPayment abandons a pending attempt. The booking stays payable, so
// the customer can start over with another gateway.
func (s *PaymentService) CancelPayment(ctx context.Context, sessionID string) (*models.PaymentSession, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load payment session: %w", err)
	}
	if session.State.Terminal() {
		return nil, ErrSessionClosed
	}

	session.State = models.SessionCancelled
	session.UpdatedAt = s.now()
	if err := s.store.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("failed to update payment session: %w", err)
	}

	s.publishPaymentEvent("payment.cancelled", session)
	s.log.LogPayment("CANCEL", session.SessionID, fmt.Sprintf("Attempt abandoned for booking %s", session.BookingReference))
	return session, nil
}

func (s *PaymentService) GetSession(ctx context.Context, sessionID string) (*models.PaymentSession, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load payment session: %w", err)
	}
	return session, nil
}

// RefundPayment reverses a settled payment through its original provider and
// marks the session refunded. Manual settlements are refunded off-system, so
// only the session record changes.
func (s *PaymentService) RefundPayment(ctx context.Context, req *models.RefundPaymentRequest) (*models.PaymentSession, error) {
	booking, err := s.store.GetBookingByReference(req.BookingReference)
	if err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	session, err := s.store.GetLatestSessionByBooking(booking.ID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotRefundable
		}
		return nil, fmt.Errorf("failed to load payment session: %w", err)
	}
	if session.State != models.SessionSucceeded {
		return nil, ErrNotRefundable
	}
	if req.Amount != nil && (*req.Amount <= 0 || *req.Amount > session.Amount) {
		return nil, fmt.Errorf("%w: amount out of range", ErrNotRefundable)
	}

	if session.Protocol != models.ProtocolManual {
		provider, ok := s.providers[session.Protocol]
		if !ok {
			return nil, ErrNoProvider
		}
		gw, err := s.store.GetGatewayByName(session.Gateway)
		if err != nil {
			return nil, fmt.Errorf("failed to load gateway %s: %w", session.Gateway, err)
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
		if _, err := provider.Refund(callCtx, gw, session, req.Amount); err != nil {
			return nil, err
		}
	}

	session.State = models.SessionRefunded
	session.UpdatedAt = s.now()
	if err := s.store.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("failed to update payment session: %w", err)
	}

	s.publishPaymentEvent("payment.refunded", session)
	s.log.LogPayment("REFUND", session.SessionID, fmt.Sprintf("Booking %s refunded (%s)",
		session.BookingReference, req.Reason))
	return session, nil
}

// settleBooking records the settled payment on the booking: payment_status
// completed, booking confirmed if still pending.
func (s *PaymentService) settleBooking(session *models.PaymentSession, raw string) {
	if err := s.store.UpdatePaymentState(session.BookingID, models.PaymentCompleted); err != nil {
		s.log.Error("PAYMENT", fmt.Sprintf("Failed to mark booking %s paid: %v", session.BookingReference, err))
	}
	if err := s.store.UpdatePaymentTrace(session.BookingID, session.Gateway, session.GatewayPaymentID, raw); err != nil {
		s.log.Warn("PAYMENT", fmt.Sprintf("Failed to record payment trace on %s: %v", session.BookingReference, err))
	}
	if booking, err := s.store.GetBooking(session.BookingID); err == nil {
		s.confirmBooking(booking)
	}
}

func (s *PaymentService) confirmBooking(booking *models.Booking) {
	if booking.Status != models.BookingPending {
		return
	}
	if err := s.store.UpdateBookingStatus(booking.ID, models.BookingConfirmed); err != nil {
		s.log.Error("BOOKING", fmt.Sprintf("Failed to confirm booking %s: %v", booking.Reference, err))
		return
	}
	booking.Status = models.BookingConfirmed
	if s.producer != nil {
		event := &models.BookingEvent{
			Type:      "booking.confirmed",
			Reference: booking.Reference,
			Booking:   booking,
			Timestamp: s.now(),
		}
		if err := s.producer.PublishBookingEvent(event); err != nil {
			s.log.Warn("KAFKA", fmt.Sprintf("Failed to publish booking.confirmed for %s: %v", booking.Reference, err))
		}
	}
}

func (s *PaymentService) markBookingPaymentFailed(session *models.PaymentSession) {
	if err := s.store.UpdatePaymentState(session.BookingID, models.PaymentFailed); err != nil {
		s.log.Warn("PAYMENT", fmt.Sprintf("Failed to mark booking %s payment failed: %v", session.BookingReference, err))
	}
}

func (s *PaymentService) failSession(session *models.PaymentSession, kind models.FailureKind, raw string) {
	session.State = models.SessionFailed
	session.FailureKind = kind
	if raw != "" {
		session.RawResponse = raw
	}
	session.UpdatedAt = s.now()
	if err := s.store.UpdateSession(session); err != nil {
		s.log.Error("PAYMENT", fmt.Sprintf("Failed to fail session %s: %v", session.SessionID, err))
		return
	}
	s.publishPaymentEvent("payment.failed", session)
	s.log.LogPayment("FAIL", session.SessionID, fmt.Sprintf("Booking %s attempt failed: %s",
		session.BookingReference, kind))
}

func (s *PaymentService) publishPaymentEvent(eventType string, session *models.PaymentSession) {
	if s.producer == nil {
		return
	}
	event := &models.PaymentEvent{
		Type:             eventType,
		SessionID:        session.SessionID,
		BookingReference: session.BookingReference,
		Session:          session,
		Timestamp:        s.now(),
	}
	if err := s.producer.PublishPaymentEvent(event); err != nil {
		s.log.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for %s: %v", eventType, session.SessionID, err))
	}
}
