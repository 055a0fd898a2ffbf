package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
)

// RedirectProvider drives gateways that host their own checkout page. The
// customer is sent to the gateway's URL and comes back with a provider-side
// payment id, which we confirm against the gateway's status endpoint.
type RedirectProvider struct {
	client *http.Client
	log    *logger.Logger
}

func NewRedirectProvider(timeout time.Duration, log *logger.Logger) *RedirectProvider {
	return &RedirectProvider{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// CreateCharge builds the externally hosted checkout URL. Nothing is created
// at the provider yet; the charge materializes when the customer pays there.
func (p *RedirectProvider) CreateCharge(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession, booking *models.Booking) (*ProviderCharge, error) {
	if gw.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: gateway %s has no checkout URL configured", ErrProviderError, gw.Name)
	}

	checkout, err := url.Parse(gw.CheckoutURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid checkout URL for gateway %s: %v", ErrProviderError, gw.Name, err)
	}
	q := checkout.Query()
	q.Set("reference", booking.Reference)
	q.Set("session", session.SessionID)
	q.Set("amount", fmt.Sprintf("%.2f", session.Amount))
	q.Set("currency", session.Currency)
	checkout.RawQuery = q.Encode()

	p.log.LogPayment("REDIRECT", session.SessionID, fmt.Sprintf("Customer redirected to %s for booking %s",
		checkout.Host, booking.Reference))

	return &ProviderCharge{CheckoutURL: checkout.String()}, nil
}

// redirectStatus is the minimal status document the external gateway serves.
type redirectStatus struct {
	Status    string  `json:"status"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// VerifyCharge queries the gateway's status endpoint for the returned payment
// id. The customer's word that they paid is never enough.
func (p *RedirectProvider) VerifyCharge(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession) (string, error) {
	if session.GatewayPaymentID == "" {
		return "", fmt.Errorf("%w: no provider payment id on session", ErrProviderError)
	}

	statusURL := strings.TrimRight(gw.CheckoutURL, "/") + "/status/" + url.PathEscape(session.GatewayPaymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if gw.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+gw.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Error("REDIRECT", fmt.Sprintf("Status query failed for %s: %v", session.GatewayPaymentID, err))
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if resp.StatusCode != http.StatusOK {
		return string(body), fmt.Errorf("%w: status endpoint returned %d", ErrProviderError, resp.StatusCode)
	}

	var status redirectStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return string(body), fmt.Errorf("%w: malformed status document: %v", ErrProviderError, err)
	}

	if !strings.EqualFold(status.Status, "paid") && !strings.EqualFold(status.Status, "succeeded") {
		p.log.LogPayment("REDIRECT", session.SessionID, fmt.Sprintf("Payment %s not settled, status %q",
			session.GatewayPaymentID, status.Status))
		return string(body), ErrChargeNotSettled
	}
	if status.Reference != session.BookingReference {
		p.log.LogSecurity("VERIFY_MISMATCH", fmt.Sprintf("Payment %s carries reference %q, session expects %q",
			session.GatewayPaymentID, status.Reference, session.BookingReference))
		return string(body), ErrVerificationMismatch
	}
	if status.Amount != session.Amount {
		p.log.LogSecurity("VERIFY_MISMATCH", fmt.Sprintf("Payment %s settled %.2f, session expects %.2f",
			session.GatewayPaymentID, status.Amount, session.Amount))
		return string(body), ErrVerificationMismatch
	}

	p.log.LogPayment("REDIRECT", session.SessionID, fmt.Sprintf("Payment %s verified as settled", session.GatewayPaymentID))
	return string(body), nil
}

// Refund posts a refund request to the gateway's refund endpoint.
func (p *RedirectProvider) Refund(ctx context.Context, gw *models.PaymentGateway, session *models.PaymentSession, amount *float64) (string, error) {
	payload := map[string]interface{}{"payment_id": session.GatewayPaymentID}
	if amount != nil {
		payload["amount"] = *amount
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	refundURL := strings.TrimRight(gw.CheckoutURL, "/") + "/refunds"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, refundURL, strings.NewReader(string(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if gw.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+gw.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: refund endpoint returned %d", ErrProviderError, resp.StatusCode)
	}

	var result struct {
		RefundID string `json:"refund_id"`
	}
	_ = json.Unmarshal(body, &result)

	p.log.LogPayment("REFUND", session.SessionID, fmt.Sprintf("Refund accepted for payment %s", session.GatewayPaymentID))
	return result.RefundID, nil
}
