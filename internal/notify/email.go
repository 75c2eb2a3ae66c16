package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"tourbook/internal/utils"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// EmailSender mails customers about their bookings through Brevo's transactional API.
type EmailSender struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	Endpoint    string
	Client      *http.Client
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewEmailSender returns nil when no API key is configured.
func NewEmailSender(apiKey, senderEmail, senderName string) *EmailSender {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &EmailSender{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		Endpoint:    brevoEndpoint,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) Send(ctx context.Context, ev Event) error {
	if ev.CustomerEmail == "" || !strings.Contains(ev.CustomerEmail, "@") {
		return nil
	}
	subject, body, ok := renderEmail(ev)
	if !ok {
		return nil
	}

	recipient := ev.CustomerName
	if recipient == "" {
		recipient = ev.CustomerEmail[:strings.Index(ev.CustomerEmail, "@")]
	}
	payload, err := json.Marshal(brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": ev.CustomerEmail, "name": recipient}},
		Subject:     subject,
		HTMLContent: body,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("brevo status %d: %s", resp.StatusCode, string(respBody))
	}
	utils.LogEvent(ev.RequestID, "notify", "email_sent", fmt.Sprintf("type=%s booking=%s", ev.Type, ev.BookingNumber))
	return nil
}

func renderEmail(ev Event) (subject, body string, ok bool) {
	num := html.EscapeString(ev.BookingNumber)
	money := func() string { return html.EscapeString(utils.FormatAmount(ev.Amount, ev.Currency)) }

	switch ev.Type {
	case BookingCreated:
		subject = "Booking " + ev.BookingNumber + " received"
		body = fmt.Sprintf("<p>We are holding %d seat(s) for booking <b>%s</b>. It is confirmed once paid in full.</p>", ev.Seats, num)
	case BookingConfirmed:
		subject = "Booking " + ev.BookingNumber + " confirmed"
		body = fmt.Sprintf("<p>Your booking <b>%s</b> is paid in full and confirmed.</p>", num)
	case BookingCancelled:
		subject = "Booking " + ev.BookingNumber + " cancelled"
		body = fmt.Sprintf("<p>Your booking <b>%s</b> was cancelled. %s</p>", num, html.EscapeString(ev.Reason))
	case BookingRefunded:
		subject = "Booking " + ev.BookingNumber + " refunded"
		body = fmt.Sprintf("<p>All payments for booking <b>%s</b> were refunded and the seats released.</p>", num)
	case PaymentCompleted:
		subject = "Payment received for " + ev.BookingNumber
		body = fmt.Sprintf("<p>We received %s for booking <b>%s</b>.</p>", money(), num)
	case PaymentFailed:
		subject = "Payment failed for " + ev.BookingNumber
		body = fmt.Sprintf("<p>A payment of %s for booking <b>%s</b> failed. %s</p>", money(), num, html.EscapeString(ev.Reason))
	case PaymentRefunded:
		subject = "Refund issued for " + ev.BookingNumber
		body = fmt.Sprintf("<p>We refunded %s for booking <b>%s</b>.</p>", money(), num)
	default:
		return "", "", false
	}
	return subject, body, true
}
