// Package push delivers reminder payloads to device push subscriptions.
package push

import (
	"context"
	"errors"

	"focustasks/model"
)

// TTL is how long, in seconds, a push service should hold an undelivered
// reminder.
const TTL = 120

// ErrSubscriptionGone means the push service no longer knows the
// subscription. Callers drop it.
var ErrSubscriptionGone = errors.New("push subscription is gone")

// Sender delivers one payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub *model.Subscription, payload model.PushPayload) error
}
