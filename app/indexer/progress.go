package indexer

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// StreamProgress is the last known position of one stream consumer.
type StreamProgress struct {
	Stream      string    `json:"stream"`
	LastID      string    `json:"last_id"`
	Event       string    `json:"event"`
	BlockNumber uint64    `json:"block_number"`
	Applied     uint64    `json:"applied"`
	Ignored     uint64    `json:"ignored"`
	Malformed   uint64    `json:"malformed"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Progress tracks every stream consumer, keyed by stream name.
type Progress struct {
	streams *xsync.Map[string, StreamProgress]
}

// NewProgress returns an empty tracker.
func NewProgress() *Progress {
	return &Progress{streams: xsync.NewMap[string, StreamProgress]()}
}

type outcome int

const (
	outcomeApplied outcome = iota
	outcomeIgnored
	outcomeMalformed
)

func (p *Progress) record(stream, id, event string, block uint64, o outcome) {
	p.streams.Compute(stream, func(old StreamProgress, loaded bool) (StreamProgress, xsync.ComputeOp) {
		if !loaded {
			old = StreamProgress{Stream: stream}
		}
		old.LastID = id
		old.Event = event
		if block > 0 {
			old.BlockNumber = block
		}
		switch o {
		case outcomeApplied:
			old.Applied++
		case outcomeIgnored:
			old.Ignored++
		case outcomeMalformed:
			old.Malformed++
		}
		old.UpdatedAt = time.Now().UTC()
		return old, xsync.UpdateOp
	})
}

// Get returns the progress of one stream.
func (p *Progress) Get(stream string) (StreamProgress, bool) {
	return p.streams.Load(stream)
}

// Snapshot returns the progress of every stream that has seen an entry.
func (p *Progress) Snapshot() map[string]StreamProgress {
	out := make(map[string]StreamProgress, p.streams.Size())
	p.streams.Range(func(stream string, sp StreamProgress) bool {
		out[stream] = sp
		return true
	})
	return out
}
