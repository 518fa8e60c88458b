package api

import (
	"context"

	"datalens/domain/notify"
	"datalens/internal"
	"datalens/ports"
)

// LogNotifier writes notifications to the log; the CLI uses it in place of toasts
type LogNotifier struct {
	logger *internal.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *internal.Logger) *LogNotifier {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &LogNotifier{logger: logger}
}

// Notify implements ports.Notifier
func (l *LogNotifier) Notify(_ context.Context, n notify.Notification) {
	switch n.Level {
	case notify.LevelError:
		l.logger.Error("%s: %s", n.Title, n.Message)
	default:
		l.logger.Info("%s: %s", n.Title, n.Message)
	}
}

// FanoutNotifier forwards each notification to several notifiers
type FanoutNotifier []ports.Notifier

// Notify implements ports.Notifier
func (f FanoutNotifier) Notify(ctx context.Context, n notify.Notification) {
	for _, target := range f {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}
