package projection

import (
	"context"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/events"
)

// Resubmitting a claim resets it to PENDING and clears the resolution.
func (p *Projector) onEngagementSubmitted(_ context.Context, env events.Envelope, a events.EngagementSubmittedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.EngagementID); err != nil {
		return nil, err
	}
	return []Mutation{
		Upsert(p.schema.Claims, a.EngagementID.String(), Fields{
			schema.ColValuableActionID:    a.TypeID.String(),
			schema.ColClaimant:            a.Participant,
			schema.ColStatus:              ClaimStatuses.Initial(),
			schema.ColEvidenceManifestCID: a.EvidenceCID,
			schema.ColSubmittedAt:         env.Time(),
			schema.ColResolvedAt:          nil,
		}),
	}, nil
}

// A decision only lands on an existing assignment.
func (p *Projector) onEngagementVerified(_ context.Context, env events.Envelope, a events.EngagementVerifiedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.EngagementID); err != nil {
		return nil, err
	}
	if err := requireAddress(env, a.Verifier); err != nil {
		return nil, err
	}
	decision := DecisionReject
	if a.Approve {
		decision = DecisionApprove
	}
	return []Mutation{
		Update(p.schema.JurorAssignments, JurorAssignmentID(a.EngagementID.String(), a.Verifier), Fields{
			schema.ColDecision:  decision,
			schema.ColDecidedAt: env.Time(),
		}),
	}, nil
}

func (p *Projector) onEngagementResolved(_ context.Context, env events.Envelope, a events.EngagementResolvedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.EngagementID); err != nil {
		return nil, err
	}
	return []Mutation{p.resolveClaim(a.EngagementID, ClaimStatuses.Map(a.Status), env)}, nil
}

func (p *Projector) onEngagementRevoked(_ context.Context, env events.Envelope, a events.EngagementRevokedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.EngagementID); err != nil {
		return nil, err
	}
	return []Mutation{p.resolveClaim(a.EngagementID, ClaimRevoked, env)}, nil
}

func (p *Projector) resolveClaim(id events.ID, status string, env events.Envelope) Mutation {
	return Update(p.schema.Claims, id.String(), Fields{
		schema.ColStatus:     status,
		schema.ColResolvedAt: env.Time(),
	})
}
