// Package reporting forwards cycle failures to Honeybadger when an API key is
// configured. Without a key every call is a no-op.
package reporting

import (
	"os"
	"time"

	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"
)

type Reporter interface {
	Report(err error, tags ...string)
	Flush()
}

// NewFromEnv reads HONEYBADGER_API_KEY and GO_ENV.
func NewFromEnv(logger *logrus.Logger) Reporter {
	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		logger.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return Nop{}
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})
	logger.Info("Honeybadger error reporting is enabled.")
	return &Honeybadger{logger: logger}
}

type Honeybadger struct {
	logger *logrus.Logger
}

func (h *Honeybadger) Report(err error, tags ...string) {
	if err == nil {
		return
	}
	if _, nerr := honeybadger.Notify(err, honeybadger.Tags(tags)); nerr != nil {
		h.logger.Warnf("honeybadger notify failed: %v", nerr)
	}
}

// Flush waits briefly for queued notices before shutdown.
func (h *Honeybadger) Flush() {
	done := make(chan struct{})
	go func() {
		honeybadger.Flush()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		h.logger.Warn("honeybadger flush timed out")
	}
}

// Nop discards reports.
type Nop struct{}

func (Nop) Report(error, ...string) {}

func (Nop) Flush() {}
