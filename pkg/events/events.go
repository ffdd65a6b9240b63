// Package events defines the decoded on-chain log events the projector consumes.
//
// The delivery substrate writes one Envelope per log as JSON into the "data"
// field of a Redis stream entry. Args carries the event's named arguments.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Name identifies an event type, e.g. "RequestCreated".
type Name string

// Community and request events.
const (
	CommunityRegistered  Name = "CommunityRegistered"
	RequestCreated       Name = "RequestCreated"
	CommentPosted        Name = "CommentPosted"
	RequestStatusChanged Name = "RequestStatusChanged"
	CommentModerated     Name = "CommentModerated"
)

// Drafting events.
const (
	DraftCreated           Name = "DraftCreated"
	VersionSnapshot        Name = "VersionSnapshot"
	ReviewSubmitted        Name = "ReviewSubmitted"
	ReviewRetracted        Name = "ReviewRetracted"
	DraftStatusChanged     Name = "DraftStatusChanged"
	ProposalEscalated      Name = "ProposalEscalated"
	ProposalOutcomeUpdated Name = "ProposalOutcomeUpdated"
)

// Governor and voting events.
const (
	ProposalCreated            Name = "ProposalCreated"
	MultiChoiceProposalCreated Name = "MultiChoiceProposalCreated"
	MultiChoiceEnabled         Name = "MultiChoiceEnabled"
	ProposalQueued             Name = "ProposalQueued"
	ProposalExecuted           Name = "ProposalExecuted"
	ProposalCanceled           Name = "ProposalCanceled"
	VoteCast                   Name = "VoteCast"
	MultiChoiceVoteCast        Name = "MultiChoiceVoteCast"
)

// Work verification events.
const (
	EngagementSubmitted Name = "EngagementSubmitted"
	JurorsSelected      Name = "JurorsSelected"
	JurorsAssigned      Name = "JurorsAssigned"
	EngagementVerified  Name = "EngagementVerified"
	EngagementResolved  Name = "EngagementResolved"
	EngagementRevoked   Name = "EngagementRevoked"
)

// Envelope is one delivered log event.
type Envelope struct {
	Event       Name            `json:"event"`
	ChainID     uint64          `json:"chainId"`
	Contract    string          `json:"contract"`
	BlockNumber uint64          `json:"blockNumber"`
	BlockTime   int64           `json:"blockTime"` // seconds since epoch
	TxHash      string          `json:"txHash"`
	LogIndex    uint32          `json:"logIndex"`
	TxFrom      string          `json:"txFrom"` // sender of the emitting transaction
	Args        json.RawMessage `json:"args"`
}

// Parse decodes an envelope from stream entry data.
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if len(bytes.TrimSpace(data)) == 0 {
		return env, fmt.Errorf("empty envelope")
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return env, fmt.Errorf("envelope without event name")
	}
	return env, nil
}

// Time converts the block time to an absolute UTC timestamp.
func (e Envelope) Time() time.Time {
	return time.Unix(e.BlockTime, 0).UTC()
}

// Decode unmarshals Args into target.
func (e Envelope) Decode(target any) error {
	args := e.Args
	if len(bytes.TrimSpace(args)) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, target); err != nil {
		return fmt.Errorf("decode %s args: %w", e.Event, err)
	}
	return nil
}

// ID is an on-chain identifier. Ids are uint256 values, so they are carried as
// decimal text and accepted from JSON as either a number or a string.
type ID string

// UnmarshalJSON accepts both 42 and "42".
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = canonicalID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = canonicalID(n.String())
	return nil
}

// canonicalID strips leading zeros from decimal text so "007" and 7 name the
// same row.
func canonicalID(s string) ID {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return ID(s)
	}
	if trimmed := strings.TrimLeft(s, "0"); trimmed != "" {
		return ID(trimmed)
	}
	return "0"
}

// String returns the id text.
func (id ID) String() string {
	return string(id)
}

// IsEmpty reports whether the id was absent from the event.
func (id ID) IsEmpty() bool {
	return id == ""
}

// IsZero reports whether the id is empty or the 0 sentinel. Only fields that
// use 0 for "none", such as a comment's parent, should test for it.
func (id ID) IsZero() bool {
	return strings.TrimLeft(string(id), "0") == ""
}
