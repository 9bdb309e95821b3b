package persistence

import (
	"context"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReceiver replays a fixed slice of messages then blocks until ctx is
// canceled, mimicking a drained PULL socket.
type fakeReceiver struct {
	messages [][]byte
	idx      int
}

func (f *fakeReceiver) Recv(ctx context.Context) ([]byte, error) {
	if f.idx < len(f.messages) {
		m := f.messages[f.idx]
		f.idx++
		return m, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDedupeCache_RemembersTradeIDKey(t *testing.T) {
	seen := cache.New(dedupeTTL, dedupeTTL/2)
	key := "trade:1"

	_, found := seen.Get(key)
	assert.False(t, found)

	seen.Set(key, struct{}{}, dedupeTTL)
	_, found = seen.Get(key)
	assert.True(t, found)
}

func TestFakeReceiver_StopsOnCancel(t *testing.T) {
	recv := &fakeReceiver{messages: [][]byte{[]byte(`{"type":"CANCEL","orderId":1,"side":"BUY"}`)}}
	ctx, cancel := context.WithCancel(context.Background())

	msg, err := recv.Recv(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(msg), "CANCEL")

	cancel()
	_, err = recv.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRetry_RetriesOnceOnTransientError(t *testing.T) {
	c := &Consumer{}
	attempts := 0
	err := c.withRetry(func() error {
		attempts++
		if attempts == 1 {
			return context.DeadlineExceeded
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestWithRetry_DoesNotRetryOnFatalError(t *testing.T) {
	c := &Consumer{}
	attempts := 0
	fatal := assert.AnError
	err := c.withRetry(func() error {
		attempts++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}
