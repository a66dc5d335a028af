// Package notify delivers one-time codes to candidate addresses. Delivery is
// best-effort from the core's point of view: a failed send is logged by the
// caller and the session stays resendable.
package notify

import (
	"context"
	"time"
)

// Sender is the Notifier collaborator.
type Sender interface {
	// SendCode delivers a plaintext one-time code with its remaining
	// validity window, templated for the given locale.
	SendCode(ctx context.Context, email, code string, ttl time.Duration, locale string) error
}
