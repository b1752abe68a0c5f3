package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/myuop2024/pollwatch/internal/config"
	"github.com/myuop2024/pollwatch/internal/domain"
)

// Sender is the black-box contract of a notification gateway.
type Sender interface {
	Send(ctx context.Context, recipient, message string) error
}

// GatewaySender posts JSON to an HTTP notification gateway. SMS, push and
// voice all speak this shape; only the URL differs.
type GatewaySender struct {
	channel domain.Channel
	url     string
	client  *http.Client
}

func NewGatewaySender(channel domain.Channel, url string) *GatewaySender {
	return &GatewaySender{
		channel: channel,
		url:     url,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type gatewayRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *GatewaySender) Send(ctx context.Context, recipient, message string) error {
	body, err := json.Marshal(gatewayRequest{To: recipient, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s gateway: %s", s.channel, resp.Status)
	}
	return nil
}

// EmailSender delivers over SMTP. gomail has no context support, so the send
// runs in a goroutine and the caller's deadline wins the select.
type EmailSender struct {
	dialer  *gomail.Dialer
	from    string
	subject string
}

func NewEmailSender(cfg config.DispatchConfig) *EmailSender {
	return &EmailSender{
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:    cfg.From,
		subject: "Election observation alert",
	}
}

func (s *EmailSender) Send(ctx context.Context, recipient, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", s.subject)
	m.SetBody("text/plain", message)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
