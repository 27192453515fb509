package beacon

import (
	"context"
	"sync"
	"time"

	"github.com/HerbHall/presage/pkg/models"
	"go.uber.org/zap"
)

// channel pairs a built notifier with its configured name.
type channel struct {
	name     string
	notifier Notifier
}

// Dispatcher fans an alert out to every enabled notification channel.
// Channels are independent: one failing or slow channel never blocks or
// fails the others, and no delivery error reaches the caller of Record.
type Dispatcher struct {
	channels []channel
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDispatcher builds notifiers for the enabled channels. Channels that
// fail to build are logged and skipped; stubbed types are skipped silently.
func NewDispatcher(configs []ChannelConfig, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{timeout: timeout, logger: logger}
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		n, err := buildNotifier(cfg)
		if err != nil {
			logger.Warn("failed to build notifier",
				zap.String("channel", cfg.Name),
				zap.String("type", cfg.Type),
				zap.Error(err),
			)
			continue
		}
		if n == nil {
			logger.Debug("skipping stubbed notifier type",
				zap.String("channel", cfg.Name),
				zap.String("type", cfg.Type),
			)
			continue
		}
		d.channels = append(d.channels, channel{name: cfg.Name, notifier: n})
	}
	return d
}

// ChannelCount returns the number of active channels.
func (d *Dispatcher) ChannelCount() int {
	return len(d.channels)
}

// Dispatch delivers the alert to all channels concurrently and waits for
// every delivery attempt to finish. Each failure is logged and counted
// independently.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) {
	if len(d.channels) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch channel) {
			defer wg.Done()
			if err := ch.notifier.Notify(ctx, alert); err != nil {
				notificationFailures.WithLabelValues(ch.notifier.Type()).Inc()
				d.logger.Warn("notification delivery failed",
					zap.String("channel", ch.name),
					zap.String("type", ch.notifier.Type()),
					zap.String("alert_id", alert.ID),
					zap.Error(err),
				)
				return
			}
			notificationsSent.WithLabelValues(ch.notifier.Type()).Inc()
			d.logger.Debug("notification delivered",
				zap.String("channel", ch.name),
				zap.String("type", ch.notifier.Type()),
				zap.String("alert_id", alert.ID),
			)
		}(ch)
	}
	wg.Wait()
}
