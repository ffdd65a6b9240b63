package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/desoc-network/govx/pkg/db/memory"
	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/projection"
	"github.com/desoc-network/govx/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []Notification
}

func (p *fakePublisher) Publish(_ context.Context, _ string, message any) {
	var n Notification
	_ = json.Unmarshal(message.([]byte), &n)
	p.mu.Lock()
	p.messages = append(p.messages, n)
	p.mu.Unlock()
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) Apply(context.Context, []projection.Mutation) error {
	return errors.New("connection reset")
}

func newTestHandler(t *testing.T, store projection.Store) (*StreamHandler, *fakePublisher) {
	t.Helper()
	sch := schema.Default()
	pub := &fakePublisher{}
	logger := zaptest.NewLogger(t)
	return &StreamHandler{
		Stream:    "govx:requests",
		Schema:    sch,
		Projector: projection.New(sch, store, logger),
		Store:     store,
		Progress:  NewProgress(),
		Publisher: pub,
		Channel:   "govx:projection.applied",
		Logger:    logger,
	}, pub
}

func entry(id, data string) redis.Message {
	return redis.Message{ID: id, Stream: "govx:requests", Values: map[string]any{"data": data}}
}

func TestHandleProjectsAndCheckpoints(t *testing.T) {
	store := memory.New()
	h, pub := newTestHandler(t, store)
	ctx := context.Background()

	err := h.Handle(ctx, entry("100-0", `{"event":"RequestCreated","blockNumber":42,"blockTime":1000,"txHash":"0xt","args":{"requestId":7,"communityId":1}}`))
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, h.Schema.Requests, "7")
	require.NoError(t, err)
	assert.True(t, ok)

	cp, ok, err := store.Get(ctx, h.Schema.Checkpoints, "govx:requests")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "100-0", cp[schema.ColLastID])
	assert.Equal(t, "RequestCreated", cp[schema.ColEvent])
	assert.Equal(t, uint64(42), cp[schema.ColBlockNumber])

	sp, ok := h.Progress.Get("govx:requests")
	require.True(t, ok)
	assert.Equal(t, uint64(1), sp.Applied)
	assert.Equal(t, "100-0", sp.LastID)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, []string{"requests"}, pub.messages[0].Tables)
	assert.Equal(t, []string{"7"}, pub.messages[0].IDs)
	assert.Equal(t, "0xt", pub.messages[0].TxHash)
}

func TestHandleFallsBackToEntryChainID(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   uint64
	}{
		{"envelope wins", map[string]any{"chainId": "10", "data": `{"event":"CommunityRegistered","chainId":8453,"args":{"communityId":1}}`}, 8453},
		{"entry field", map[string]any{"chainId": "10", "data": `{"event":"CommunityRegistered","args":{"communityId":1}}`}, 10},
		{"snake case field", map[string]any{"chain_id": "11", "data": `{"event":"CommunityRegistered","args":{"communityId":1}}`}, 11},
		{"neither", map[string]any{"data": `{"event":"CommunityRegistered","args":{"communityId":1}}`}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			h, _ := newTestHandler(t, store)
			ctx := context.Background()

			require.NoError(t, h.Handle(ctx, redis.Message{ID: "1-0", Stream: h.Stream, Values: tt.values}))

			community, ok, err := store.Get(ctx, h.Schema.Communities, "1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, community[schema.ColChainID])
		})
	}
}

func TestHandleSkipsUnprojectableEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"event":`},
		{"no event name", `{"args":{}}`},
		{"bad args", `{"event":"VoteCast","args":{"proposalId":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			h, pub := newTestHandler(t, store)
			ctx := context.Background()

			require.NoError(t, h.Handle(ctx, entry("5-0", tt.data)))

			cp, ok, err := store.Get(ctx, h.Schema.Checkpoints, "govx:requests")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "5-0", cp[schema.ColLastID])

			sp, _ := h.Progress.Get("govx:requests")
			assert.Equal(t, uint64(1), sp.Malformed)
			assert.Empty(t, pub.messages)
		})
	}
}

func TestHandleIgnoresUnknownEvents(t *testing.T) {
	store := memory.New()
	h, pub := newTestHandler(t, store)

	require.NoError(t, h.Handle(context.Background(), entry("6-0", `{"event":"OwnershipTransferred","args":{}}`)))

	sp, _ := h.Progress.Get("govx:requests")
	assert.Equal(t, uint64(1), sp.Ignored)
	assert.Equal(t, 1, store.Count(h.Schema.Checkpoints))
	assert.Empty(t, pub.messages)
}

func TestHandleReturnsStoreErrors(t *testing.T) {
	h, pub := newTestHandler(t, brokenStore{Store: memory.New()})

	err := h.Handle(context.Background(), entry("7-0", `{"event":"RequestCreated","args":{"requestId":7}}`))
	require.Error(t, err)

	err = h.Handle(context.Background(), entry("8-0", `garbage`))
	require.Error(t, err)

	_, ok := h.Progress.Get("govx:requests")
	assert.False(t, ok)
	assert.Empty(t, pub.messages)
}
