package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desoc-network/govx/pkg/events"
)

// ErrMalformedEvent marks an event whose arguments cannot be projected.
// Redelivering it cannot succeed.
var ErrMalformedEvent = errors.New("malformed event")

type handlerFunc func(p *Projector, ctx context.Context, env events.Envelope) ([]Mutation, error)

// decoded adapts a typed handler to handlerFunc.
func decoded[T any](fn func(*Projector, context.Context, events.Envelope, T) ([]Mutation, error)) handlerFunc {
	return func(p *Projector, ctx context.Context, env events.Envelope) ([]Mutation, error) {
		var args T
		if err := env.Decode(&args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return fn(p, ctx, env, args)
	}
}

var handlers = map[events.Name]handlerFunc{
	events.CommunityRegistered:  decoded((*Projector).onCommunityRegistered),
	events.RequestCreated:       decoded((*Projector).onRequestCreated),
	events.CommentPosted:        decoded((*Projector).onCommentPosted),
	events.RequestStatusChanged: decoded((*Projector).onRequestStatusChanged),
	events.CommentModerated:     decoded((*Projector).onCommentModerated),

	events.DraftCreated:           decoded((*Projector).onDraftCreated),
	events.VersionSnapshot:        decoded((*Projector).onVersionSnapshot),
	events.ReviewSubmitted:        decoded((*Projector).onReviewSubmitted),
	events.ReviewRetracted:        decoded((*Projector).onReviewRetracted),
	events.DraftStatusChanged:     decoded((*Projector).onDraftStatusChanged),
	events.ProposalEscalated:      decoded((*Projector).onProposalEscalated),
	events.ProposalOutcomeUpdated: decoded((*Projector).onProposalOutcomeUpdated),

	events.ProposalCreated:            decoded((*Projector).onProposalCreated),
	events.MultiChoiceProposalCreated: decoded((*Projector).onProposalCreated),
	events.MultiChoiceEnabled:         decoded((*Projector).onMultiChoiceEnabled),
	events.ProposalQueued:             decoded((*Projector).onProposalQueued),
	events.ProposalExecuted:           decoded((*Projector).onProposalExecuted),
	events.ProposalCanceled:           decoded((*Projector).onProposalCanceled),
	events.VoteCast:                   decoded((*Projector).onVoteCast),
	events.MultiChoiceVoteCast:        decoded((*Projector).onMultiChoiceVoteCast),

	events.EngagementSubmitted: decoded((*Projector).onEngagementSubmitted),
	events.JurorsSelected:      decoded((*Projector).onJurorsSelected),
	events.JurorsAssigned:      decoded((*Projector).onJurorsAssigned),
	events.EngagementVerified:  decoded((*Projector).onEngagementVerified),
	events.EngagementResolved:  decoded((*Projector).onEngagementResolved),
	events.EngagementRevoked:   decoded((*Projector).onEngagementRevoked),
}

// Handles reports whether the projector has a handler for name.
func Handles(name events.Name) bool {
	_, ok := handlers[name]
	return ok
}

// requireIDs rejects absent ids. 0 is a valid on-chain id.
func requireIDs(env events.Envelope, ids ...events.ID) error {
	for i, id := range ids {
		if id.IsEmpty() {
			return fmt.Errorf("%w: %s: id %d is missing", ErrMalformedEvent, env.Event, i)
		}
	}
	return nil
}

func requireAddress(env events.Envelope, addr string) error {
	if NormalizeAddress(addr) == "" {
		return fmt.Errorf("%w: %s: address is missing", ErrMalformedEvent, env.Event)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// optionalID maps the 0 sentinel to NULL.
func optionalID(id events.ID) any {
	if id.IsZero() {
		return nil
	}
	return id.String()
}

func optionalString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
