package projection

import (
	"context"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/events"
)

// Re-registration overwrites name, metadata and creation time.
func (p *Projector) onCommunityRegistered(_ context.Context, env events.Envelope, a events.CommunityRegisteredArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.CommunityID); err != nil {
		return nil, err
	}
	chainID := a.ChainID
	if chainID == 0 {
		chainID = env.ChainID
	}
	return []Mutation{
		Upsert(p.schema.Communities, a.CommunityID.String(), Fields{
			schema.ColChainID:     chainID,
			schema.ColName:        a.Name,
			schema.ColMetadataURI: a.MetadataURI,
			schema.ColCreatedAt:   env.Time(),
		}),
	}, nil
}

func (p *Projector) onRequestCreated(_ context.Context, env events.Envelope, a events.RequestCreatedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.RequestID); err != nil {
		return nil, err
	}
	return []Mutation{
		InsertIgnore(p.schema.Requests, a.RequestID.String(), Fields{
			schema.ColCommunityID: a.CommunityID.String(),
			schema.ColAuthor:      a.Author,
			schema.ColStatus:      RequestStatuses.Initial(),
			schema.ColCID:         a.CID,
			schema.ColTags:        nonNil(a.Tags),
			schema.ColCreatedAt:   env.Time(),
		}),
	}, nil
}

func (p *Projector) onCommentPosted(_ context.Context, env events.Envelope, a events.CommentPostedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.CommentID); err != nil {
		return nil, err
	}
	return []Mutation{
		InsertIgnore(p.schema.Comments, a.CommentID.String(), Fields{
			schema.ColRequestID:   a.RequestID.String(),
			schema.ColAuthor:      a.Author,
			schema.ColCID:         a.CID,
			schema.ColParentID:    optionalID(a.ParentCommentID),
			schema.ColCreatedAt:   env.Time(),
			schema.ColIsModerated: false,
		}),
	}, nil
}

// FROZEN and ARCHIVED may follow each other freely; the contract owns legality.
func (p *Projector) onRequestStatusChanged(_ context.Context, env events.Envelope, a events.RequestStatusChangedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.RequestID); err != nil {
		return nil, err
	}
	return []Mutation{
		Update(p.schema.Requests, a.RequestID.String(), Fields{
			schema.ColStatus: RequestStatuses.Map(a.NewStatus),
		}),
	}, nil
}

func (p *Projector) onCommentModerated(_ context.Context, env events.Envelope, a events.CommentModeratedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.CommentID); err != nil {
		return nil, err
	}
	return []Mutation{
		Update(p.schema.Comments, a.CommentID.String(), Fields{
			schema.ColIsModerated: a.Hidden,
		}),
	}, nil
}
