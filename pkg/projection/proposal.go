package projection

import (
	"context"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/events"
	"github.com/shopspring/decimal"
)

// onProposalCreated handles both governor creation events. The option list is
// only written when the row is created: once it exists, escalation and
// MultiChoiceEnabled own the column.
func (p *Projector) onProposalCreated(_ context.Context, env events.Envelope, a events.ProposalCreatedArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.ProposalID); err != nil {
		return nil, err
	}
	set := Fields{
		schema.ColProposer:        a.Proposer,
		schema.ColDescriptionCID:  a.Description,
		schema.ColDescriptionHash: a.DescriptionHash,
		schema.ColTargets:         nonNil(a.Targets),
		schema.ColValues:          decimalStrings(a.Values),
		schema.ColCalldatas:       nonNil(a.Calldatas),
		schema.ColState:           ProposalActive,
		schema.ColCreatedAt:       env.Time(),
	}
	if !a.CommunityID.IsEmpty() {
		set[schema.ColCommunityID] = a.CommunityID.String()
	}
	var options any
	if env.Event == events.MultiChoiceProposalCreated && a.NumOptions > 0 {
		options = optionIndexes(a.NumOptions)
	}
	m := Upsert(p.schema.Proposals, a.ProposalID.String(), set)
	m.OnInsert = Fields{schema.ColMultiChoiceOptions: options}
	return []Mutation{m}, nil
}

func (p *Projector) onMultiChoiceEnabled(_ context.Context, env events.Envelope, a events.MultiChoiceEnabledArgs) ([]Mutation, error) {
	if err := requireIDs(env, a.ProposalID); err != nil {
		return nil, err
	}
	return []Mutation{
		Update(p.schema.Proposals, a.ProposalID.String(), Fields{
			schema.ColMultiChoiceOptions: optionIndexes(a.Options),
		}),
	}, nil
}

func (p *Projector) onProposalQueued(_ context.Context, env events.Envelope, a events.ProposalLifecycleArgs) ([]Mutation, error) {
	return p.proposalState(env, a, ProposalQueued, schema.ColQueuedAt)
}

func (p *Projector) onProposalExecuted(_ context.Context, env events.Envelope, a events.ProposalLifecycleArgs) ([]Mutation, error) {
	return p.proposalState(env, a, ProposalExecuted, schema.ColExecutedAt)
}

func (p *Projector) onProposalCanceled(_ context.Context, env events.Envelope, a events.ProposalLifecycleArgs) ([]Mutation, error) {
	return p.proposalState(env, a, ProposalCanceled, "")
}

func (p *Projector) proposalState(env events.Envelope, a events.ProposalLifecycleArgs, state, stampColumn string) ([]Mutation, error) {
	if err := requireIDs(env, a.ProposalID); err != nil {
		return nil, err
	}
	set := Fields{schema.ColState: state}
	if stampColumn != "" {
		set[stampColumn] = env.Time()
	}
	return []Mutation{Update(p.schema.Proposals, a.ProposalID.String(), set)}, nil
}

// A voter has one vote per proposal; recasting replaces it.
func (p *Projector) onVoteCast(_ context.Context, env events.Envelope, a events.VoteCastArgs) ([]Mutation, error) {
	return p.vote(env, a.ProposalID, a.Voter, a.Weight, int32(a.Support))
}

// Multi-choice votes spread weight across options, so no single index is stored.
func (p *Projector) onMultiChoiceVoteCast(_ context.Context, env events.Envelope, a events.MultiChoiceVoteCastArgs) ([]Mutation, error) {
	return p.vote(env, a.ProposalID, a.Voter, a.TotalWeight, nil)
}

func (p *Projector) vote(env events.Envelope, proposal events.ID, voter string, weight decimal.Decimal, option any) ([]Mutation, error) {
	if err := requireIDs(env, proposal); err != nil {
		return nil, err
	}
	if err := requireAddress(env, voter); err != nil {
		return nil, err
	}
	proposalID := proposal.String()
	return []Mutation{
		Upsert(p.schema.ProposalVotes, VoteID(proposalID, voter), Fields{
			schema.ColProposalID:  proposalID,
			schema.ColVoter:       voter,
			schema.ColWeight:      weight,
			schema.ColOptionIndex: option,
			schema.ColCastAt:      env.Time(),
		}),
	}, nil
}
