package projection

import (
	"context"
	"fmt"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/events"
	"github.com/shopspring/decimal"
)

// onProposalEscalated links a draft to the proposal it became. The proposal is
// keyed by the governor's proposal id, so it converges with a row written by
// ProposalCreated in either order: escalation owns the option list and the
// initial state, direct creation owns the governance payload.
func (p *Projector) onProposalEscalated(ctx context.Context, env events.Envelope, a events.ProposalEscalatedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.DraftID, a.ProposalID); err != nil {
		return nil, err
	}
	draftID := a.DraftID.String()
	proposalID := a.ProposalID.String()
	at := env.Time()

	var options any
	if a.IsMultiChoice {
		options = optionIndexes(a.NumOptions)
	}

	onInsert := Fields{
		schema.ColProposer:  env.TxFrom,
		schema.ColCreatedAt: at,
	}
	draft, ok, err := p.store.Get(ctx, p.schema.Drafts, draftID)
	if err != nil {
		return nil, fmt.Errorf("read draft %s: %w", draftID, err)
	}
	if ok {
		if community, _ := draft[schema.ColCommunityID].(string); community != "" {
			onInsert[schema.ColCommunityID] = community
		}
	}

	proposal := Upsert(p.schema.Proposals, proposalID, Fields{
		schema.ColMultiChoiceOptions: options,
		schema.ColState:              ProposalActive,
	})
	proposal.OnInsert = onInsert

	return []Mutation{
		Update(p.schema.Drafts, draftID, Fields{
			schema.ColEscalatedProposalID: proposalID,
			schema.ColStatus:              DraftEscalated,
			schema.ColUpdatedAt:           at,
		}),
		proposal,
	}, nil
}

// onProposalOutcomeUpdated writes the same draft-domain status to both the
// draft and its proposal.
func (p *Projector) onProposalOutcomeUpdated(_ context.Context, env events.Envelope, a events.ProposalOutcomeUpdatedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.DraftID); err != nil {
		return nil, err
	}
	status := DraftStatuses.Map(a.Outcome)
	mutations := []Mutation{
		Update(p.schema.Drafts, a.DraftID.String(), Fields{
			schema.ColStatus:    status,
			schema.ColUpdatedAt: env.Time(),
		}),
	}
	if !a.ProposalID.IsZero() {
		mutations = append(mutations, Update(p.schema.Proposals, a.ProposalID.String(), Fields{
			schema.ColState: status,
		}))
	}
	return mutations, nil
}

// onJurorsSelected starts a fresh assignment round: weights are overwritten and
// earlier decisions cleared.
func (p *Projector) onJurorsSelected(_ context.Context, env events.Envelope, a events.JurorsSelectedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.EngagementID); err != nil {
		return nil, err
	}
	claimID := a.EngagementID.String()
	mutations := make([]Mutation, 0, len(a.Jurors)+1)
	if !a.CommunityID.IsEmpty() {
		mutations = append(mutations, Update(p.schema.Claims, claimID, Fields{
			schema.ColCommunityID: a.CommunityID.String(),
		}))
	}
	for i, juror := range a.Jurors {
		if NormalizeAddress(juror) == "" {
			continue
		}
		var weight any
		if i < len(a.Powers) {
			weight = a.Powers[i]
		}
		mutations = append(mutations, Upsert(p.schema.JurorAssignments, JurorAssignmentID(claimID, juror), Fields{
			schema.ColClaimID:   claimID,
			schema.ColJuror:     juror,
			schema.ColWeight:    weight,
			schema.ColDecision:  nil,
			schema.ColDecidedAt: nil,
		}))
	}
	return mutations, nil
}

// onJurorsAssigned only creates placeholders; a weighted assignment wins.
func (p *Projector) onJurorsAssigned(_ context.Context, env events.Envelope, a events.JurorsAssignedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.EngagementID); err != nil {
		return nil, err
	}
	claimID := a.EngagementID.String()
	mutations := make([]Mutation, 0, len(a.Jurors))
	for _, juror := range a.Jurors {
		if NormalizeAddress(juror) == "" {
			continue
		}
		mutations = append(mutations, InsertIgnore(p.schema.JurorAssignments, JurorAssignmentID(claimID, juror), Fields{
			schema.ColClaimID: claimID,
			schema.ColJuror:   juror,
			schema.ColWeight:  nil,
		}))
	}
	return mutations, nil
}

func optionIndexes(n int) []int32 {
	if n <= 0 {
		return []int32{}
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i)
	}
	return out
}

func decimalStrings(values []decimal.Decimal) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
