package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desoc-network/govx/pkg/retry"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeStream models one stream with a single consumer's pending list.
type fakeStream struct {
	mu        sync.Mutex
	name      string
	entries   []redis.XMessage
	next      int
	pending   []redis.XMessage
	acked     []string
	groupMade bool
	done      context.CancelFunc
}

func (f *fakeStream) XGroupCreateMkStream(_ context.Context, stream, group, start string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupMade = true
	return nil
}

func (f *fakeStream) XReadGroup(_ context.Context, group, consumer, stream, id string, count int64, block time.Duration) ([]redis.XStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id == "0" {
		n := min(int(count), len(f.pending))
		msgs := append([]redis.XMessage(nil), f.pending[:n]...)
		return []redis.XStream{{Stream: f.name, Messages: msgs}}, nil
	}

	if f.next >= len(f.entries) {
		if len(f.pending) == 0 {
			f.done()
		}
		return nil, redis.Nil
	}
	end := min(f.next+int(count), len(f.entries))
	msgs := f.entries[f.next:end]
	f.next = end
	f.pending = append(f.pending, msgs...)
	return []redis.XStream{{Stream: f.name, Messages: append([]redis.XMessage(nil), msgs...)}}, nil
}

func (f *fakeStream) XAck(_ context.Context, stream, group string, ids ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		for i, p := range f.pending {
			if p.ID == id {
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				f.acked = append(f.acked, id)
				break
			}
		}
	}
	return int64(len(ids)), nil
}

func entries(ids ...string) []redis.XMessage {
	out := make([]redis.XMessage, len(ids))
	for i, id := range ids {
		out[i] = redis.XMessage{ID: id, Values: map[string]any{"data": id}}
	}
	return out
}

func newTestConsumer(t *testing.T, f *fakeStream) *StreamConsumer {
	t.Helper()
	sc, err := NewStreamConsumer(f, StreamConsumerConfig{
		Stream:   f.name,
		Group:    "projector",
		Consumer: "test",
		Count:    10,
		Retry:    retry.Config{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return sc
}

func TestRunRedeliversFailedEntryBeforeLaterOnes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := &fakeStream{name: "govx:drafts", entries: entries("1-0", "2-0", "3-0"), done: cancel}

	var handled []string
	failOnce := true
	err := newTestConsumer(t, f).Run(ctx, func(_ context.Context, msg Message) error {
		handled = append(handled, msg.ID)
		if msg.ID == "2-0" && failOnce {
			failOnce = false
			return errors.New("store unavailable")
		}
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, f.groupMade)
	assert.Equal(t, []string{"1-0", "2-0", "2-0", "3-0"}, handled)
	assert.Equal(t, []string{"1-0", "2-0", "3-0"}, f.acked)
	assert.Empty(t, f.pending)
}

func TestRunDrainsPendingFirst(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := &fakeStream{
		name:    "govx:governor",
		entries: entries("5-0"),
		pending: entries("4-0"),
		done:    cancel,
	}

	var handled []string
	err := newTestConsumer(t, f).Run(ctx, func(_ context.Context, msg Message) error {
		handled = append(handled, string(msg.GetData()))
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"4-0", "5-0"}, handled)
}

func TestNewStreamConsumerValidation(t *testing.T) {
	f := &fakeStream{}
	_, err := NewStreamConsumer(nil, StreamConsumerConfig{Stream: "s", Group: "g", Consumer: "c"})
	assert.Error(t, err)
	_, err = NewStreamConsumer(f, StreamConsumerConfig{Group: "g", Consumer: "c"})
	assert.Error(t, err)
	_, err = NewStreamConsumer(f, StreamConsumerConfig{Stream: "s", Group: "g"})
	assert.Error(t, err)

	sc, err := NewStreamConsumer(f, StreamConsumerConfig{Stream: "s", Group: "g", Consumer: "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), sc.config.Count)
	assert.Equal(t, 5*time.Second, sc.config.Block)
	assert.Equal(t, time.Second, sc.config.Retry.InitialDelay)
}

func TestMessageHelpers(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		data    []byte
		chainID uint64
	}{
		{"string data", map[string]any{"data": "{}", "chainId": "10"}, []byte("{}"), 10},
		{"bytes data", map[string]any{"data": []byte("x"), "chain_id": int64(7)}, []byte("x"), 7},
		{"missing", map[string]any{}, nil, 0},
		{"bad chain id", map[string]any{"chainId": "ten"}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Message{Values: tt.values}
			assert.Equal(t, tt.data, m.GetData())
			assert.Equal(t, tt.chainID, m.GetChainID())
		})
	}
}
