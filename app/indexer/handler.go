package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/events"
	"github.com/desoc-network/govx/pkg/projection"
	"github.com/desoc-network/govx/pkg/redis"
	"go.uber.org/zap"
)

// Publisher sends best-effort notifications. *redis.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any)
}

// Notification is published after an entry has been projected.
type Notification struct {
	Stream      string   `json:"stream"`
	ID          string   `json:"id"`
	Event       string   `json:"event"`
	BlockNumber uint64   `json:"block_number"`
	TxHash      string   `json:"tx_hash"`
	Tables      []string `json:"tables"`
	IDs         []string `json:"ids"`
}

// StreamHandler projects the entries of one stream.
type StreamHandler struct {
	Stream    string
	Schema    *schema.Schema
	Projector *projection.Projector
	Store     projection.Writer
	Progress  *Progress
	Publisher Publisher // optional
	Channel   string
	Logger    *zap.Logger
}

// Handle implements redis.MessageHandler. A nil return acknowledges the entry,
// so entries that can never be projected return nil after their checkpoint is
// written. Store failures are returned and the entry is redelivered.
func (h *StreamHandler) Handle(ctx context.Context, msg redis.Message) error {
	env, err := events.Parse(msg.GetData())
	if err != nil {
		return h.skip(ctx, msg, events.Envelope{}, err)
	}
	if env.ChainID == 0 {
		env.ChainID = msg.GetChainID()
	}

	res, err := h.Projector.Apply(ctx, env, h.checkpoint(msg.ID, env))
	if errors.Is(err, projection.ErrMalformedEvent) {
		return h.skip(ctx, msg, env, err)
	}
	if err != nil {
		return err
	}

	o := outcomeApplied
	if res.Ignored {
		o = outcomeIgnored
	}
	h.Progress.record(h.Stream, msg.ID, string(env.Event), env.BlockNumber, o)
	if !res.Ignored {
		h.notify(ctx, msg.ID, env, res)
	}
	return nil
}

func (h *StreamHandler) skip(ctx context.Context, msg redis.Message, env events.Envelope, cause error) error {
	h.Logger.Warn("Skipping malformed stream entry",
		zap.String("stream", h.Stream),
		zap.String("id", msg.ID),
		zap.String("event", string(env.Event)),
		zap.Uint64("block", env.BlockNumber),
		zap.String("tx", env.TxHash),
		zap.Error(cause))

	if err := h.Store.Apply(ctx, []projection.Mutation{h.checkpoint(msg.ID, env)}); err != nil {
		return fmt.Errorf("checkpoint %s %s: %w", h.Stream, msg.ID, err)
	}
	h.Progress.record(h.Stream, msg.ID, string(env.Event), env.BlockNumber, outcomeMalformed)
	return nil
}

func (h *StreamHandler) checkpoint(id string, env events.Envelope) projection.Mutation {
	return projection.Upsert(h.Schema.Checkpoints, h.Stream, projection.Fields{
		schema.ColLastID:      id,
		schema.ColEvent:       string(env.Event),
		schema.ColBlockNumber: env.BlockNumber,
		schema.ColUpdatedAt:   time.Now().UTC(),
	})
}

func (h *StreamHandler) notify(ctx context.Context, id string, env events.Envelope, res projection.Result) {
	if h.Publisher == nil || h.Channel == "" {
		return
	}
	var tables, ids []string
	seen := make(map[string]bool, len(res.Mutations))
	for _, m := range res.Mutations {
		if m.Table.Entity == h.Schema.Checkpoints.Entity {
			continue
		}
		ids = append(ids, m.ID)
		if name := m.Table.Name(); !seen[name] {
			seen[name] = true
			tables = append(tables, name)
		}
	}

	payload, err := json.Marshal(Notification{
		Stream:      h.Stream,
		ID:          id,
		Event:       string(env.Event),
		BlockNumber: env.BlockNumber,
		TxHash:      env.TxHash,
		Tables:      tables,
		IDs:         ids,
	})
	if err != nil {
		h.Logger.Warn("Failed to encode notification", zap.Error(err))
		return
	}
	h.Publisher.Publish(ctx, h.Channel, payload)
}
