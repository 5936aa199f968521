package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"feedhub/internal/middleware"
	"feedhub/internal/observability"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Notifier publishes feed events into Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishFeedEvent publishes ev on FeedEventsChannel. A zero At is set to now.
func (n *Notifier) PublishFeedEvent(ctx context.Context, ev FeedEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}

	ctx, done := observability.StartPublish(ctx, FeedEventsChannel, ev.Type)
	err = n.rdb.Publish(ctx, FeedEventsChannel, payload).Err()
	done(err)
	return err
}

// StartFeedSubscriber subscribes to FeedEventsChannel and calls onMessage for
// each payload until ctx is done.
func (n *Notifier) StartFeedSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, FeedEventsChannel)
	// Wait for the subscription to be confirmed so no early event is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", FeedEventsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in feed subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
