package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/pkg/circuitbreaker"
)

// Sender delivers a text message to a phone number. It never returns an error: the outcome
// is reported in the result so callers can show it without failing their own operation.
type Sender interface {
	Send(ctx context.Context, phone, message string) model.NotificationResult
}

type WhatsAppConfig struct {
	Endpoint string
	Token    string
	Sender   string
	Timeout  time.Duration
}

// WhatsAppSender posts messages to an HTTP WhatsApp gateway.
type WhatsAppSender struct {
	cfg    WhatsAppConfig
	client *http.Client
	cb     *circuitbreaker.CircuitBreaker
}

func NewWhatsAppSender(cfg WhatsAppConfig) *WhatsAppSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WhatsAppSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:             "whatsapp",
			MaxRequests:      1,
			Timeout:          30 * time.Second,
			FailureThreshold: 3,
		}),
	}
}

type gatewayRequest struct {
	Target  string `json:"target"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

type gatewayResponse struct {
	Status  *bool  `json:"status"`
	Message string `json:"message"`
}

func (s *WhatsAppSender) Send(ctx context.Context, phone, message string) model.NotificationResult {
	if s.cfg.Endpoint == "" {
		return model.NotificationResult{Success: false, Message: "whatsapp gateway is not configured"}
	}
	target, err := NormalizePhone(phone)
	if err != nil {
		return model.NotificationResult{Success: false, Message: err.Error()}
	}

	var detail string
	err = s.cb.Execute(func() error {
		var sendErr error
		detail, sendErr = s.post(ctx, gatewayRequest{Target: target, Message: message, Sender: s.cfg.Sender})
		return sendErr
	})
	if err != nil {
		return model.NotificationResult{Success: false, Message: err.Error()}
	}
	if detail == "" {
		detail = "message sent"
	}
	return model.NotificationResult{Success: true, Message: detail}
}

func (s *WhatsAppSender) post(ctx context.Context, body gatewayRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed gatewayResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(parsed.Message))
	}
	if parsed.Status != nil && !*parsed.Status {
		return "", fmt.Errorf("gateway rejected message: %s", parsed.Message)
	}
	return parsed.Message, nil
}

// NormalizePhone converts local Indonesian numbers (08..., +62...) to the 62... form the
// gateway expects.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "62"):
	case strings.HasPrefix(digits, "0"):
		digits = "62" + digits[1:]
	case strings.HasPrefix(digits, "8"):
		digits = "62" + digits
	}
	if len(digits) < 10 || len(digits) > 15 {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	return digits, nil
}
