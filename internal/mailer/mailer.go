package mailer

import (
	"fmt"
	"net/smtp"

	"trip-haven-backend/internal/config"
	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
)

// Mailer sends booking notification emails over plain SMTP. With no host
// configured it degrades to logging, so local runs never need a mail relay.
type Mailer struct {
	cfg config.SMTPConfig
	log *logger.Logger
}

func NewMailer(cfg config.SMTPConfig, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) SendBookingEmail(b *models.Booking, emailType models.EmailType) error {
	subject, intro := templateFor(emailType)

	if m.cfg.Host == "" {
		m.log.LogMail("MOCK_SEND", b.CustomerEmail, fmt.Sprintf("%s email for booking %s (SMTP not configured)", emailType, b.Reference))
		return nil
	}

	message := []byte(fmt.Sprintf(
		"Subject: %s\r\n"+
			"MIME-version: 1.0;\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n"+
			`<div style="font-family: Arial, sans-serif; max-width: 520px; margin: auto; border: 1px solid #e0e0e0; border-radius: 10px; padding: 24px;">
				<h2 style="color: #0a7d6b;">Trip Haven</h2>
				<p style="font-size: 15px; color: #444;">%s</p>
				<table style="font-size: 14px; color: #333;">
					<tr><td style="padding-right: 12px;">Reference</td><td><strong>%s</strong></td></tr>
					<tr><td style="padding-right: 12px;">Service</td><td>%s</td></tr>
					<tr><td style="padding-right: 12px;">Amount</td><td>%.2f %s</td></tr>
					<tr><td style="padding-right: 12px;">Status</td><td>%s / payment %s</td></tr>
				</table>
				<p style="font-size: 13px; color: #888; margin-top: 18px;">
					Keep your reference handy for any enquiry.
				</p>
			</div>`,
		fmt.Sprintf(subject, b.Reference), intro,
		b.Reference, b.ServiceTitle, b.FinalAmount, b.Currency, b.Status, b.PaymentState))

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	addr := m.cfg.Host + ":" + m.cfg.Port

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{b.CustomerEmail}, message); err != nil {
		m.log.Error("MAIL", fmt.Sprintf("Failed to send %s email for booking %s: %v", emailType, b.Reference, err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.LogMail("SENT", b.CustomerEmail, fmt.Sprintf("%s email for booking %s", emailType, b.Reference))
	return nil
}

// HandleBookingEvent adapts lifecycle events from the consumer into the
// matching customer email.
func (m *Mailer) HandleBookingEvent(event *models.BookingEvent) error {
	if event.Booking == nil {
		return nil
	}

	switch event.Type {
	case "booking.created":
		return m.SendBookingEmail(event.Booking, models.EmailReminder)
	case "booking.confirmed":
		return m.SendBookingEmail(event.Booking, models.EmailConfirmation)
	case "booking.cancelled":
		return m.SendBookingEmail(event.Booking, models.EmailCancellation)
	}
	return nil
}

func templateFor(emailType models.EmailType) (subject, intro string) {
	switch emailType {
	case models.EmailConfirmation:
		return "Your booking %s is confirmed", "Good news - your booking is confirmed. Details below."
	case models.EmailCancellation:
		return "Your booking %s was cancelled", "Your booking has been cancelled. If this is unexpected, contact our support desk."
	default:
		return "We received your booking %s", "Thanks for booking with us. Complete the payment to confirm your trip."
	}
}
