package events

import "github.com/shopspring/decimal"

// CommunityRegisteredArgs is the payload of CommunityRegistered. ChainID falls back to the envelope.
type CommunityRegisteredArgs struct {
	CommunityID ID     `json:"communityId"`
	Name        string `json:"name"`
	ChainID     uint64 `json:"chainId"`
	MetadataURI string `json:"metadataUri"`
}

// RequestCreatedArgs is the payload of RequestCreated.
type RequestCreatedArgs struct {
	RequestID   ID       `json:"requestId"`
	CommunityID ID       `json:"communityId"`
	Author      string   `json:"author"`
	CID         string   `json:"cid"`
	Tags        []string `json:"tags"`
}

// CommentPostedArgs is the payload of CommentPosted. A ParentCommentID of 0 marks a top-level comment.
type CommentPostedArgs struct {
	CommentID       ID     `json:"commentId"`
	RequestID       ID     `json:"requestId"`
	Author          string `json:"author"`
	CID             string `json:"cid"`
	ParentCommentID ID     `json:"parentCommentId"`
}

// RequestStatusChangedArgs carries a request status code.
type RequestStatusChangedArgs struct {
	RequestID ID  `json:"requestId"`
	NewStatus int `json:"newStatus"`
}

// CommentModeratedArgs is the payload of CommentModerated.
type CommentModeratedArgs struct {
	CommentID ID   `json:"commentId"`
	Hidden    bool `json:"hidden"`
}

// DraftCreatedArgs is the payload of DraftCreated. VersionCID is version 0.
type DraftCreatedArgs struct {
	DraftID     ID     `json:"draftId"`
	CommunityID ID     `json:"communityId"`
	RequestID   ID     `json:"requestId"`
	VersionCID  string `json:"versionCID"`
	Author      string `json:"author"`
}

// VersionSnapshotArgs is the payload of VersionSnapshot.
type VersionSnapshotArgs struct {
	DraftID       ID     `json:"draftId"`
	VersionNumber uint64 `json:"versionNumber"`
	VersionCID    string `json:"versionCID"`
	Contributor   string `json:"contributor"`
}

// ReviewSubmittedArgs carries a review stance code and an optional reason.
type ReviewSubmittedArgs struct {
	DraftID    ID     `json:"draftId"`
	Reviewer   string `json:"reviewer"`
	ReviewType int    `json:"reviewType"`
	ReasonCID  string `json:"reasonCID"`
}

// ReviewRetractedArgs is the payload of ReviewRetracted.
type ReviewRetractedArgs struct {
	DraftID  ID     `json:"draftId"`
	Reviewer string `json:"reviewer"`
}

// DraftStatusChangedArgs carries a draft status code.
type DraftStatusChangedArgs struct {
	DraftID   ID  `json:"draftId"`
	NewStatus int `json:"newStatus"`
}

// ProposalEscalatedArgs links a draft to the governor proposal it became.
type ProposalEscalatedArgs struct {
	DraftID       ID   `json:"draftId"`
	ProposalID    ID   `json:"proposalId"`
	IsMultiChoice bool `json:"isMultiChoice"`
	NumOptions    int  `json:"numOptions"`
}

// ProposalOutcomeUpdatedArgs carries a draft status code. ProposalID is 0 when no proposal exists.
type ProposalOutcomeUpdatedArgs struct {
	DraftID    ID  `json:"draftId"`
	ProposalID ID  `json:"proposalId"`
	Outcome    int `json:"outcome"`
}

// ProposalCreatedArgs covers both ProposalCreated and MultiChoiceProposalCreated;
// NumOptions is only present on the latter. CommunityID is set by substrates
// that know which community a governor belongs to.
type ProposalCreatedArgs struct {
	ProposalID      ID                `json:"proposalId"`
	CommunityID     ID                `json:"communityId"`
	Proposer        string            `json:"proposer"`
	Description     string            `json:"description"`
	DescriptionHash string            `json:"descriptionHash"`
	Targets         []string          `json:"targets"`
	Values          []decimal.Decimal `json:"values"`
	Calldatas       []string          `json:"calldatas"`
	NumOptions      int               `json:"numOptions"`
}

// MultiChoiceEnabledArgs is the payload of MultiChoiceEnabled.
type MultiChoiceEnabledArgs struct {
	ProposalID ID  `json:"proposalId"`
	Options    int `json:"options"`
}

// ProposalLifecycleArgs is the payload of ProposalQueued, ProposalExecuted and ProposalCanceled.
type ProposalLifecycleArgs struct {
	ProposalID ID `json:"proposalId"`
}

// VoteCastArgs is a binary vote; Support is the chosen option.
type VoteCastArgs struct {
	ProposalID ID              `json:"proposalId"`
	Voter      string          `json:"voter"`
	Support    int             `json:"support"`
	Weight     decimal.Decimal `json:"weight"`
}

// MultiChoiceVoteCastArgs is a vote spread across options.
type MultiChoiceVoteCastArgs struct {
	ProposalID  ID              `json:"proposalId"`
	Voter       string          `json:"voter"`
	TotalWeight decimal.Decimal `json:"totalWeight"`
}

// EngagementSubmittedArgs opens a claim. TypeID is the valuable action id.
type EngagementSubmittedArgs struct {
	EngagementID ID     `json:"engagementId"`
	TypeID       ID     `json:"typeId"`
	Participant  string `json:"participant"`
	EvidenceCID  string `json:"evidenceCID"`
}

// JurorsSelectedArgs is a weighted juror selection; Powers[i] belongs to Jurors[i].
type JurorsSelectedArgs struct {
	EngagementID ID                `json:"engagementId"`
	CommunityID  ID                `json:"communityId"`
	Jurors       []string          `json:"jurors"`
	Powers       []decimal.Decimal `json:"powers"`
}

// JurorsAssignedArgs assigns jurors without weights.
type JurorsAssignedArgs struct {
	EngagementID ID       `json:"engagementId"`
	Jurors       []string `json:"jurors"`
}

// EngagementVerifiedArgs is one juror decision.
type EngagementVerifiedArgs struct {
	EngagementID ID     `json:"engagementId"`
	Verifier     string `json:"verifier"`
	Approve      bool   `json:"approve"`
}

// EngagementResolvedArgs carries a claim status code.
type EngagementResolvedArgs struct {
	EngagementID ID  `json:"engagementId"`
	Status       int `json:"status"`
}

// EngagementRevokedArgs is the payload of EngagementRevoked.
type EngagementRevokedArgs struct {
	EngagementID ID `json:"engagementId"`
}
