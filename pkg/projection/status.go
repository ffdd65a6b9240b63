package projection

// StatusTable maps small on-chain enum codes to status strings for one domain.
// A code outside the table resolves to the first entry: an unknown code puts the
// record in its initial state instead of failing the event.
type StatusTable struct {
	name   string
	values []string
}

// NewStatusTable builds a table; values[0] is the initial state and fallback.
func NewStatusTable(name string, values ...string) StatusTable {
	if len(values) == 0 {
		panic("projection: status table " + name + " has no values")
	}
	return StatusTable{name: name, values: values}
}

// Map returns the status for code, or the first status when code is out of range.
func (s StatusTable) Map(code int) string {
	if code < 0 || code >= len(s.values) {
		return s.values[0]
	}
	return s.values[code]
}

// Initial returns the state a record starts in.
func (s StatusTable) Initial() string {
	return s.values[0]
}

// Name returns the domain name of the table.
func (s StatusTable) Name() string {
	return s.name
}

// Values returns a copy of the statuses in code order.
func (s StatusTable) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

var (
	RequestStatuses = NewStatusTable("request", "OPEN_DEBATE", "FROZEN", "ARCHIVED")
	DraftStatuses   = NewStatusTable("draft", "DRAFTING", "REVIEW", "FINALIZED", "ESCALATED", "WON", "LOST")
	ReviewStances   = NewStatusTable("review", "SUPPORT", "OPPOSE", "NEUTRAL", "REQUEST_CHANGES")
	ClaimStatuses   = NewStatusTable("claim", "PENDING", "APPROVED", "REJECTED", "REVOKED")
)

// Fixed statuses written without a code lookup.
const (
	DraftEscalated = "ESCALATED"
	ClaimRevoked   = "REVOKED"

	// Proposal lifecycle states of directly created proposals. Proposals that
	// came out of a draft may also carry DraftStatuses outcomes (WON, LOST).
	ProposalActive   = "Active"
	ProposalQueued   = "Queued"
	ProposalExecuted = "Executed"
	ProposalCanceled = "Canceled"

	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)
