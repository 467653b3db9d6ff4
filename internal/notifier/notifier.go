// Package notifier delivers human-readable watch reports.
//
// Every transport satisfies the single-method Notifier capability and reports
// failure as false: a transport problem is logged by the transport and never
// propagates as a fatal error.
package notifier

import (
	"context"
	"fmt"

	"github.com/bassista/go_pagewatch/internal/config"
)

const (
	DriverSMTP     = "smtp"
	DriverTelegram = "telegram"
	DriverLog      = "log"
)

type Notifier interface {
	Notify(ctx context.Context, subject, body string, recipients []string) bool
}

// NewNotifierFromConfig selects the transport once at startup.
func NewNotifierFromConfig(cfg *config.Config) (Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	switch cfg.Notify.Driver {
	case DriverSMTP, "":
		return NewSMTPNotifier(cfg.SMTP, cfg.Notify.Timeout)
	case DriverTelegram:
		return NewTelegramNotifier(cfg.Telegram, cfg.Notify.Timeout)
	case DriverLog:
		return NewLogNotifier(), nil
	default:
		return nil, fmt.Errorf("unknown notify driver: %s (supported: %s, %s, %s)", cfg.Notify.Driver, DriverSMTP, DriverTelegram, DriverLog)
	}
}
