// Package notify delivers crawl completion notices.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultStreamMaxLen caps the notification stream.
const defaultStreamMaxLen = 10000

// Message is one user-facing notice.
type Message struct {
	UserID   int64
	SourceID int64
	Title    string
	Body     string
}

// Notifier sends a message. Implementations should return quickly.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop discards every message.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Message) error { return nil }

// RedisStreamNotifier appends messages to a Redis stream consumed by the UI.
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
	now    func() time.Time
}

// NewRedisStreamNotifier creates a notifier writing to stream.
func NewRedisStreamNotifier(client *redis.Client, stream string) *RedisStreamNotifier {
	return &RedisStreamNotifier{
		client: client,
		stream: stream,
		maxLen: defaultStreamMaxLen,
		now:    time.Now,
	}
}

// Stream returns the stream key.
func (n *RedisStreamNotifier) Stream() string {
	return n.stream
}

// Notify implements Notifier.
func (n *RedisStreamNotifier) Notify(ctx context.Context, msg Message) error {
	args := &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]any{
			"user_id":   strconv.FormatInt(msg.UserID, 10),
			"source_id": strconv.FormatInt(msg.SourceID, 10),
			"title":     msg.Title,
			"body":      msg.Body,
			"sent_at":   n.now().UTC().Format(time.RFC3339Nano),
		},
	}

	if _, err := n.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}
