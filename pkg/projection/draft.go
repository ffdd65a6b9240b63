package projection

import (
	"context"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/events"
)

// A draft is created together with its version 0.
func (p *Projector) onDraftCreated(_ context.Context, env events.Envelope, a events.DraftCreatedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.DraftID); err != nil {
		return nil, err
	}
	draftID := a.DraftID.String()
	at := env.Time()
	return []Mutation{
		Upsert(p.schema.Drafts, draftID, Fields{
			schema.ColCommunityID:      a.CommunityID.String(),
			schema.ColRequestID:        a.RequestID.String(),
			schema.ColStatus:           DraftStatuses.Initial(),
			schema.ColLatestVersionCID: a.VersionCID,
			schema.ColCreatedAt:        at,
			schema.ColUpdatedAt:        at,
		}),
		InsertIgnore(p.schema.DraftVersions, DraftVersionID(draftID, 0), Fields{
			schema.ColDraftID:       draftID,
			schema.ColVersionNumber: uint64(0),
			schema.ColCID:           a.VersionCID,
			schema.ColContributor:   a.Author,
			schema.ColCreatedAt:     at,
		}),
	}, nil
}

// The version row is written even when the draft has not been seen yet; the
// draft pointer update is a no-op in that case.
func (p *Projector) onVersionSnapshot(_ context.Context, env events.Envelope, a events.VersionSnapshotArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.DraftID); err != nil {
		return nil, err
	}
	draftID := a.DraftID.String()
	at := env.Time()
	return []Mutation{
		Upsert(p.schema.DraftVersions, DraftVersionID(draftID, a.VersionNumber), Fields{
			schema.ColDraftID:       draftID,
			schema.ColVersionNumber: a.VersionNumber,
			schema.ColCID:           a.VersionCID,
			schema.ColContributor:   a.Contributor,
			schema.ColCreatedAt:     at,
		}),
		Update(p.schema.Drafts, draftID, Fields{
			schema.ColLatestVersionCID: a.VersionCID,
			schema.ColUpdatedAt:        at,
		}),
	}, nil
}

// One live review per reviewer; resubmitting replaces the stance.
func (p *Projector) onReviewSubmitted(_ context.Context, env events.Envelope, a events.ReviewSubmittedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.DraftID); err != nil {
		return nil, err
	}
	if err := requireAddress(env, a.Reviewer); err != nil {
		return nil, err
	}
	draftID := a.DraftID.String()
	return []Mutation{
		Upsert(p.schema.DraftReviews, ReviewID(draftID, a.Reviewer), Fields{
			schema.ColDraftID:    draftID,
			schema.ColReviewer:   a.Reviewer,
			schema.ColStance:     ReviewStances.Map(a.ReviewType),
			schema.ColCommentCID: optionalString(a.ReasonCID),
			schema.ColCreatedAt:  env.Time(),
		}),
		p.touchDraft(env, draftID),
	}, nil
}

func (p *Projector) onReviewRetracted(_ context.Context, env events.Envelope, a events.ReviewRetractedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.DraftID); err != nil {
		return nil, err
	}
	if err := requireAddress(env, a.Reviewer); err != nil {
		return nil, err
	}
	draftID := a.DraftID.String()
	return []Mutation{
		Remove(p.schema.DraftReviews, ReviewID(draftID, a.Reviewer)),
		p.touchDraft(env, draftID),
	}, nil
}

func (p *Projector) touchDraft(env events.Envelope, draftID string) Mutation {
	return Update(p.schema.Drafts, draftID, Fields{schema.ColUpdatedAt: env.Time()})
}

// Transition legality is not checked here.
func (p *Projector) onDraftStatusChanged(_ context.Context, env events.Envelope, a events.DraftStatusChangedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.DraftID); err != nil {
		return nil, err
	}
	return []Mutation{
		Update(p.schema.Drafts, a.DraftID.String(), Fields{
			schema.ColStatus:    DraftStatuses.Map(a.NewStatus),
			schema.ColUpdatedAt: env.Time(),
		}),
	}, nil
}
