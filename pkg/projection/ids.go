package projection

import (
	"fmt"
	"strings"
)

// Child records without an on-chain primary key get a composite id built from
// the parent id and a natural key. Addresses are lowercased first so that
// checksummed and plain encodings of the same address collide to one row.

// NormalizeAddress trims and lowercases an address.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// DraftVersionID returns "{draftId}-{versionNumber}".
func DraftVersionID(draftID string, versionNumber uint64) string {
	return fmt.Sprintf("%s-%d", draftID, versionNumber)
}

// ReviewID returns "{draftId}-{reviewer}".
func ReviewID(draftID, reviewer string) string {
	return draftID + "-" + NormalizeAddress(reviewer)
}

// VoteID returns "{proposalId}-{voter}".
func VoteID(proposalID, voter string) string {
	return proposalID + "-" + NormalizeAddress(voter)
}

// JurorAssignmentID returns "{claimId}-{juror}".
func JurorAssignmentID(claimID, juror string) string {
	return claimID + "-" + NormalizeAddress(juror)
}
