package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/stockbook/internal/config"
	"github.com/mamadbah2/stockbook/internal/domain/models"
)

// Client delivers sale notifications to an external consumer.
type Client interface {
	NotifySale(ctx context.Context, sale models.Sale) error
}

// WebhookClient is a resty-backed implementation of Client that posts a JSON
// event to a configured webhook URL. Delivery is best effort; the caller
// decides what a failure means.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewWebhookClient builds a webhook notifier from configuration.
func NewWebhookClient(cfg config.NotifierConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &WebhookClient{
		httpClient: restyClient,
		url:        cfg.WebhookURL,
	}
}

// saleEvent is the wire payload for a committed sale.
type saleEvent struct {
	Event string      `json:"event"`
	Sale  models.Sale `json:"sale"`
}

// NotifySale posts a sale.committed event. A missing webhook URL makes this
// a no-op so deployments without a consumer need no special casing.
func (c *WebhookClient) NotifySale(ctx context.Context, sale models.Sale) error {
	if c.url == "" {
		return nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(saleEvent{Event: "sale.committed", Sale: sale}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post sale notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sale notification rejected with status %d", resp.StatusCode())
	}
	return nil
}
