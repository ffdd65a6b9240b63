// Package projection turns governance events into writes against the derived
// tables.
//
// Each handled event produces a small batch of Mutations, one per row, each
// carrying the conflict Policy for its table. The batch is handed to the Store
// in a single Apply so an event is projected entirely or not at all. Handlers
// never read back what they wrote; the only read is the escalation linker
// looking up the draft it escalates.
package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/events"
	"go.uber.org/zap"
)

// Projector applies events to a Store.
type Projector struct {
	schema  *schema.Schema
	store   Store
	logger  *zap.Logger
	metrics *Metrics
}

// Option configures a Projector.
type Option func(*Projector)

// WithMetrics records per-event metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Projector) {
		p.metrics = m
	}
}

// New creates a projector writing to store.
func New(s *schema.Schema, store Store, logger *zap.Logger, opts ...Option) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Projector{
		schema: s,
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result describes what Apply did with one event.
type Result struct {
	Event events.Name
	// Ignored is set for events without a handler.
	Ignored   bool
	Mutations []Mutation
}

// Plan returns the mutations an event produces without applying them. The
// second return value is false for events without a handler.
func (p *Projector) Plan(ctx context.Context, env events.Envelope) ([]Mutation, bool, error) {
	h, ok := handlers[env.Event]
	if !ok {
		return nil, false, nil
	}
	mutations, err := h(p, ctx, env)
	if err != nil {
		return nil, true, err
	}
	return mutations, true, nil
}

// Apply projects env and writes its mutations, together with extra, in one
// Store.Apply. Unknown events are not an error; extra is still written so a
// caller can advance a checkpoint past them.
func (p *Projector) Apply(ctx context.Context, env events.Envelope, extra ...Mutation) (Result, error) {
	start := time.Now()
	res := Result{Event: env.Event}

	mutations, known, err := p.Plan(ctx, env)
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, ErrMalformedEvent) {
			outcome = OutcomeMalformed
		}
		p.metrics.observe(env.Event, outcome, start)
		return res, err
	}
	if !known {
		res.Ignored = true
		p.logger.Debug("no handler for event",
			zap.String("event", string(env.Event)),
			zap.Uint64("block", env.BlockNumber),
		)
	}

	mutations = append(mutations, extra...)
	if len(mutations) > 0 {
		if err := p.store.Apply(ctx, mutations); err != nil {
			p.metrics.observe(env.Event, OutcomeFailed, start)
			return res, fmt.Errorf("apply %s: %w", env.Event, err)
		}
	}
	res.Mutations = mutations

	outcome := OutcomeApplied
	if res.Ignored {
		outcome = OutcomeIgnored
	}
	p.metrics.observe(env.Event, outcome, start)
	p.metrics.applied(mutations)

	p.logger.Debug("projected event",
		zap.String("event", string(env.Event)),
		zap.Uint64("block", env.BlockNumber),
		zap.Uint32("log_index", env.LogIndex),
		zap.Int("mutations", len(mutations)),
	)
	return res, nil
}
