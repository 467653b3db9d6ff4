package notifier

import (
	"context"
	"strings"

	"github.com/bassista/go_pagewatch/internal/logger"
)

// LogNotifier writes reports to the process log instead of delivering them.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Notify(_ context.Context, subject, body string, recipients []string) bool {
	logger.WithComponent("notify").
		WithField("recipients", strings.Join(recipients, ",")).
		Infof("%s\n%s", subject, body)
	return true
}
