package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStreamNotifier_Notify(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	n := NewRedisStreamNotifier(client, "agg:notifications")
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	err := n.Notify(context.Background(), Message{UserID: 2, SourceID: 9, Title: "Crawl finished", Body: "3 new articles"})
	require.NoError(t, err)

	entries, err := client.XRange(context.Background(), "agg:notifications", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, "Crawl finished", values["title"])
	assert.Equal(t, "3 new articles", values["body"])
	assert.Equal(t, "2", values["user_id"])
	assert.Equal(t, "9", values["source_id"])
	assert.Equal(t, fixed.Format(time.RFC3339Nano), values["sent_at"])
}

func TestRedisStreamNotifier_ServerDown(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	err = NewRedisStreamNotifier(client, "s").Notify(context.Background(), Message{Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xadd")
}

func TestNop(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Nop{}.Notify(context.Background(), Message{}))
}
