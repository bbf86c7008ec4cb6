package push

import (
	"errors"
	"log/slog"

	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/store"
)

// Sender delivers a payload to one subscription.
type Sender interface {
	Send(sub *model.PushSubscription, payload Payload) error
}

// Notifier fans a notification out to all of a user's registered devices.
// Delivery is best-effort: failures are logged, expired subscriptions are
// pruned, and nothing propagates back to the caller.
type Notifier struct {
	sender Sender
	subs   *store.PushStore
	logger *slog.Logger
}

func NewNotifier(sender Sender, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, subs: subs, logger: logger}
}

// NotifyUser sends the payload to every device the user has registered.
func (n *Notifier) NotifyUser(userID int64, payload Payload) {
	subs, err := n.subs.ListByUser(userID)
	if err != nil {
		n.logger.Error("list push subscriptions", "user_id", userID, "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		err := n.sender.Send(sub, payload)
		switch {
		case errors.Is(err, ErrExpired):
			if derr := n.subs.DeleteByEndpoint(sub.Endpoint); derr != nil {
				n.logger.Error("prune expired subscription", "endpoint", sub.Endpoint, "error", derr)
			}
		case err != nil:
			n.logger.Warn("push delivery failed", "user_id", userID, "error", err)
		}
	}
}
