package beacon

import (
	"context"
	"fmt"

	"github.com/HerbHall/presage/pkg/models"
)

// Notifier delivers alert notifications through a specific channel type.
type Notifier interface {
	// Notify sends a single alert. Delivery is best-effort: a returned
	// error is logged by the dispatcher, never retried.
	Notify(ctx context.Context, alert *models.Alert) error
	// Type returns the notifier type identifier (e.g., "webhook", "email").
	Type() string
}

// WebhookConfig holds configuration for webhook notification delivery.
type WebhookConfig struct {
	URL     string            `mapstructure:"url" json:"url"`
	Secret  string            `mapstructure:"secret" json:"secret,omitempty"` //nolint:gosec // G101: config field name, not a credential
	Headers map[string]string `mapstructure:"headers" json:"headers,omitempty"`
	// RatePerMinute caps outbound deliveries on this channel. 0 = unlimited.
	RatePerMinute int `mapstructure:"rate_per_minute" json:"rate_per_minute,omitempty"`
}

// EmailConfig holds configuration for email notification delivery (stub).
type EmailConfig struct {
	SMTPHost string   `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port" json:"smtp_port"`
	From     string   `mapstructure:"from" json:"from"`
	To       []string `mapstructure:"to" json:"to"`
}

// buildNotifier constructs the Notifier for a channel config. Returns
// (nil, nil) for stubbed channel types so the dispatcher can skip them.
func buildNotifier(ch ChannelConfig) (Notifier, error) {
	switch ch.Type {
	case "webhook":
		if ch.Webhook.URL == "" {
			return nil, fmt.Errorf("webhook channel %q has no url", ch.Name)
		}
		return NewWebhookNotifier(ch.Webhook), nil
	case "email":
		// Email delivery is not implemented yet.
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown channel type %q", ch.Type)
	}
}
