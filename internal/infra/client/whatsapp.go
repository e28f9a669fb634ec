package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// WhatsAppClient calls the WhatsApp gateway that relays messages to guests.
type WhatsAppClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewWhatsAppClient creates a new WhatsAppClient.
func NewWhatsAppClient(httpClient *http.Client, baseURL, token string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *WhatsAppClient {
	return &WhatsAppClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
		cb:         cb,
		cfg:        cfg,
	}
}

// Send delivers one outbound message and returns the gateway receipt.
// Rejections (4xx) are not retried.
func (c *WhatsAppClient) Send(ctx context.Context, msg *domain.OutboundMessage) (*domain.GatewayReceipt, error) {
	ctx, span := tracer.Start(ctx, "WhatsAppClient.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", msg.TenantID),
		attribute.String("message.type", string(msg.Type)),
	)

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	var receipt domain.GatewayReceipt
	err = resilience.Call(ctx, c.cb, c.cfg, "whatsapp", func() error {
		url := fmt.Sprintf("%s/v1/messages", c.baseURL)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return resilience.Permanent(err)
			}
			return err
		}
		return json.NewDecoder(resp.Body).Decode(&receipt)
	})
	if err != nil {
		var open *domain.ErrCircuitOpen
		if errors.As(err, &open) {
			return nil, err
		}
		return nil, &domain.ErrExternalService{Service: "whatsapp", Err: err}
	}
	return &receipt, nil
}

// Ping checks the gateway health endpoint.
func (c *WhatsAppClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway health returned status %d", resp.StatusCode)
	}
	return nil
}
