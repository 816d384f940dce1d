// Package lognotifier routes trade notifications to the application log.
// It stands in for chat-based notifiers in deployments without one configured.
package lognotifier

import (
	"context"

	"cryptoFuturesBot/internal/ports"
)

// Notifier implements ports.Notifier by logging each message at Info level.
type Notifier struct {
	logger ports.Logger
}

// New creates a log-backed notifier.
func New(logger ports.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Notify logs the message.
func (n *Notifier) Notify(ctx context.Context, message string) {
	n.logger.Info(ctx, "NOTIFY: "+message)
}
