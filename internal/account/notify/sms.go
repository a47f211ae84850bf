package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type SMS struct {
	To   string // E.164-style number
	Body string
}

// SMSSender submits a single outbound SMS to the gateway.
type SMSSender interface {
	SendSMS(ctx context.Context, s SMS) error
}

// GatewayConfig carries the SMS gateway settings. The gateway reports
// delivery receipts back on the /dlr webhook.
type GatewayConfig struct {
	URL    string
	APIKey string
	Sender string
}

// SMSGateway posts messages to an HTTP SMS gateway as JSON.
type SMSGateway struct {
	cfg    GatewayConfig
	client *http.Client
}

func NewSMSGateway(cfg GatewayConfig) *SMSGateway {
	return &SMSGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *SMSGateway) SendSMS(ctx context.Context, s SMS) error {
	payload, err := json.Marshal(map[string]string{
		"from": g.cfg.Sender,
		"to":   s.To,
		"text": s.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: sms send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: sms gateway responded %d", resp.StatusCode)
	}
	return nil
}

// DeliveryReceipt is the payload the gateway posts back when a message
// reaches (or fails to reach) the handset.
type DeliveryReceipt struct {
	MessageID string `json:"message_id"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
