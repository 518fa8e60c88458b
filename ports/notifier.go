package ports

import (
	"context"

	"datalens/domain/notify"
)

// Notifier delivers user-facing success and failure toasts
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification)
}
