// Package entities names the derived tables the projection engine writes.
//
// Every table that handlers touch is declared here once, so a typo in a table
// name fails at compile time instead of producing an unknown-relation error at
// apply time.
//
//	for _, e := range entities.All() {
//	    fmt.Println(e.TableName())
//	}
package entities

import (
	"fmt"
	"strings"
)

// Entity is a derived table name.
type Entity string

const (
	// Communities holds one row per on-chain community id.
	Communities Entity = "communities"

	// Requests are community discussion requests. Creation is first-write-wins.
	Requests Entity = "requests"

	// Comments are threaded comments on a request.
	Comments Entity = "comments"

	// Drafts are collaborative drafts attached to a request.
	Drafts Entity = "drafts"

	// DraftVersions are per-version snapshots of a draft, keyed "{draftId}-{version}".
	DraftVersions Entity = "draft_versions"

	// DraftReviews hold the live review of each reviewer on a draft.
	DraftReviews Entity = "draft_reviews"

	// Proposals are governance proposals, created directly or by draft escalation.
	Proposals Entity = "proposals"

	// ProposalVotes hold the live vote of each voter on a proposal.
	ProposalVotes Entity = "proposal_votes"

	// Claims are engagement submissions awaiting verification.
	Claims Entity = "claims"

	// JurorAssignments pair a claim with one verifier and their decision.
	JurorAssignments Entity = "juror_assignments"

	// Checkpoints record the last stream entry applied per stream.
	Checkpoints Entity = "projection_checkpoints"
)

// allEntities must list every constant above.
var allEntities = []Entity{
	Communities,
	Requests,
	Comments,
	Drafts,
	DraftVersions,
	DraftReviews,
	Proposals,
	ProposalVotes,
	Claims,
	JurorAssignments,
	Checkpoints,
}

var entitySet map[Entity]bool

func init() {
	entitySet = make(map[Entity]bool, len(allEntities))
	for _, e := range allEntities {
		if e == "" {
			panic("entities: empty entity name detected in allEntities")
		}
		if strings.ContainsAny(string(e), " -") {
			panic(fmt.Sprintf("entities: entity name %q is not a plain identifier", e))
		}
		entitySet[e] = true
	}
}

// String returns the entity name.
func (e Entity) String() string {
	return string(e)
}

// TableName returns the SQL table name for this entity.
func (e Entity) TableName() string {
	return string(e)
}

// IsValid reports whether e is a declared entity.
func (e Entity) IsValid() bool {
	return entitySet[e]
}

// All returns a copy of every declared entity in declaration order.
func All() []Entity {
	result := make([]Entity, len(allEntities))
	copy(result, allEntities)
	return result
}
