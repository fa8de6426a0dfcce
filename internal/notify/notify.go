// Package notify delivers summaries of published runs to external channels.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tradestat/internal/config"
	"tradestat/internal/engine"
	"tradestat/pkg/utils"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRun    NotificationType = "run_published"
	NotificationFaults NotificationType = "run_faults"
)

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationChannel defines the interface for a notification channel.
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// MultiNotifier fans notifications out to every enabled channel. It is an
// engine.Consumer.
type MultiNotifier struct {
	mu       sync.RWMutex
	channels []NotificationChannel
	logger   zerolog.Logger
}

// NewMultiNotifier creates a new MultiNotifier with the channels enabled in cfg.
func NewMultiNotifier(cfg config.NotifyConfig, logger zerolog.Logger) *MultiNotifier {
	mn := &MultiNotifier{
		channels: make([]NotificationChannel, 0),
		logger:   logger,
	}

	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookNotifier(cfg.Webhook))
	}

	return mn
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch NotificationChannel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// Enabled reports whether any channel would receive a notification.
func (mn *MultiNotifier) Enabled() bool {
	mn.mu.RLock()
	defer mn.mu.RUnlock()
	for _, ch := range mn.channels {
		if ch.IsEnabled() {
			return true
		}
	}
	return false
}

// Send sends a notification to all enabled channels.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
			continue
		}
		mn.logger.Debug().Str("channel", ch.Name()).Str("type", string(n.Type)).Msg("Notification sent")
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// OnPublish implements engine.Consumer.
func (mn *MultiNotifier) OnPublish(ctx context.Context, pub *engine.Publication) error {
	return mn.Send(ctx, RunNotification(pub))
}

// RunNotification summarizes a publication.
func RunNotification(pub *engine.Publication) Notification {
	rep := pub.Report
	all := rep.Snapshot.General.All

	n := Notification{
		Type:  NotificationRun,
		Title: fmt.Sprintf("Run #%d published", pub.Sequence),
		Message: fmt.Sprintf(
			"Trades: %d of %d\nNet: %s pips / %s vpips\nWin rate: %s\nMax drawdown: %s pips",
			rep.Snapshot.TradeCount,
			rep.InputCount,
			utils.FormatSigned(all.Pips.Net, 1),
			utils.FormatSigned(all.ValuePips.Net, 1),
			utils.FormatPercent(all.Pips.WinRate),
			utils.FormatNumber(all.Pips.MaxDrawdown, 1),
		),
		Data: map[string]interface{}{
			"run_id":      pub.RunID.String(),
			"sequence":    pub.Sequence,
			"trades":      rep.Snapshot.TradeCount,
			"faults":      len(rep.Faults),
			"net_pips":    all.Pips.Net,
			"net_vpips":   all.ValuePips.Net,
			"win_rate":    all.Pips.WinRate,
			"max_dd_pips": all.Pips.MaxDrawdown,
		},
		Timestamp: pub.PublishedAt,
	}

	if len(rep.Faults) > 0 {
		n.Type = NotificationFaults
		n.Message += fmt.Sprintf("\nExcluded: %d trades", len(rep.Faults))
	}

	return n
}
