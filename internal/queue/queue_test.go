package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	msg := Message{Type: "certificate.issued", Body: []byte(`{"code":"CERT-26-X|Y"}`)}

	got := Decode(Encode(msg))
	assert.Equal(t, msg, got)

	assert.Equal(t, Message{Body: []byte("raw")}, Decode("raw"))
}

func TestInMemoryDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	out, err := q.Consume(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Publish(ctx, Message{Type: "a", Body: []byte("1")}))
	select {
	case msg := <-out:
		assert.Equal(t, "a", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	_, open := <-out
	assert.False(t, open)
}

func TestInMemoryPublishRespectsContext(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Type: "fill"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "blocked"}), context.DeadlineExceeded)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	q := NewRedisQueue(client, "")
	q.timeout = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, Message{Type: "certificate.verified", Body: []byte("CERT-1")}))
	assert.Equal(t, 1, len(mustList(t, mr, DefaultKey)))

	out, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-out:
		assert.Equal(t, "certificate.verified", msg.Type)
		assert.Equal(t, "CERT-1", string(msg.Body))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func mustList(t *testing.T, mr *miniredis.Miniredis, key string) []string {
	t.Helper()
	items, err := mr.List(key)
	require.NoError(t, err)
	return items
}
