// Package schema declares the derived tables as typed definitions.
//
// The storage layer owns the definitions (DDL is generated from them) and hands
// a *Schema to the projector, which addresses tables and columns only through
// it. Every non-key column is either nullable or has a default so a partial
// insert from any producer is valid.
package schema

import (
	"fmt"
	"strings"

	"github.com/desoc-network/govx/pkg/db/entities"
	"github.com/shopspring/decimal"
)

// KeyColumn is the primary key of every derived table. On-chain ids are
// uint256 so they are stored as decimal text.
const KeyColumn = "id"

// Column names shared across tables.
const (
	ColChainID             = "chain_id"
	ColName                = "name"
	ColMetadataURI         = "metadata_uri"
	ColCreatedAt           = "created_at"
	ColUpdatedAt           = "updated_at"
	ColCommunityID         = "community_id"
	ColAuthor              = "author"
	ColStatus              = "status"
	ColCID                 = "cid"
	ColTags                = "tags"
	ColRequestID           = "request_id"
	ColParentID            = "parent_id"
	ColIsModerated         = "is_moderated"
	ColLatestVersionCID    = "latest_version_cid"
	ColEscalatedProposalID = "escalated_proposal_id"
	ColDraftID             = "draft_id"
	ColVersionNumber       = "version_number"
	ColContributor         = "contributor"
	ColReviewer            = "reviewer"
	ColStance              = "stance"
	ColCommentCID          = "comment_cid"
	ColProposer            = "proposer"
	ColDescriptionCID      = "description_cid"
	ColDescriptionHash     = "description_hash"
	ColTargets             = "targets"
	ColValues              = "values"
	ColCalldatas           = "calldatas"
	ColState               = "state"
	ColQueuedAt            = "queued_at"
	ColExecutedAt          = "executed_at"
	ColMultiChoiceOptions  = "multi_choice_options"
	ColProposalID          = "proposal_id"
	ColVoter               = "voter"
	ColWeight              = "weight"
	ColOptionIndex         = "option_index"
	ColCastAt              = "cast_at"
	ColValuableActionID    = "valuable_action_id"
	ColClaimant            = "claimant"
	ColEvidenceManifestCID = "evidence_manifest_cid"
	ColSubmittedAt         = "submitted_at"
	ColResolvedAt          = "resolved_at"
	ColClaimID             = "claim_id"
	ColJuror               = "juror"
	ColDecision            = "decision"
	ColDecidedAt           = "decided_at"
	ColLastID              = "last_id"
	ColEvent               = "event"
	ColBlockNumber         = "block_number"
)

// Column is one non-key column of a table.
type Column struct {
	Name     string
	Type     string // Postgres type
	Nullable bool
	Default  string // SQL default, empty for none
	Zero     any    // value an in-memory store uses for an unset column
}

// DDL renders the column definition for CREATE TABLE.
func (c Column) DDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q %s", c.Name, c.Type)
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	return b.String()
}

func text(name string) Column {
	return Column{Name: name, Type: "TEXT", Default: "''", Zero: ""}
}

func nullableText(name string) Column {
	return Column{Name: name, Type: "TEXT", Nullable: true}
}

func textArray(name string) Column {
	return Column{Name: name, Type: "TEXT[]", Default: "'{}'", Zero: []string{}}
}

func bigint(name string) Column {
	return Column{Name: name, Type: "BIGINT", Default: "0", Zero: uint64(0)}
}

func boolean(name string) Column {
	return Column{Name: name, Type: "BOOLEAN", Default: "false", Zero: false}
}

func timestamp(name string) Column {
	return Column{Name: name, Type: "TIMESTAMPTZ", Nullable: true}
}

func numeric(name string) Column {
	return Column{Name: name, Type: "NUMERIC", Default: "0", Zero: decimal.Zero}
}

func nullableNumeric(name string) Column {
	return Column{Name: name, Type: "NUMERIC", Nullable: true}
}

// Table is a derived table definition.
type Table struct {
	Entity  entities.Entity
	Columns []Column
	// Indexes lists columns that get a secondary index (foreign keys).
	Indexes []string
}

// Name returns the SQL table name.
func (t Table) Name() string {
	return t.Entity.TableName()
}

// Column looks up a column by name. The key column is not part of Columns.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the key followed by every column, in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns)+1)
	names = append(names, KeyColumn)
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Schema is the full set of derived tables.
type Schema struct {
	Communities      Table
	Requests         Table
	Comments         Table
	Drafts           Table
	DraftVersions    Table
	DraftReviews     Table
	Proposals        Table
	ProposalVotes    Table
	Claims           Table
	JurorAssignments Table
	Checkpoints      Table
}

// Default returns the schema the indexer runs with.
func Default() *Schema {
	return &Schema{
		Communities: Table{
			Entity: entities.Communities,
			Columns: []Column{
				bigint(ColChainID),
				text(ColName),
				text(ColMetadataURI),
				timestamp(ColCreatedAt),
			},
		},
		Requests: Table{
			Entity: entities.Requests,
			Columns: []Column{
				text(ColCommunityID),
				text(ColAuthor),
				text(ColStatus),
				text(ColCID),
				textArray(ColTags),
				timestamp(ColCreatedAt),
			},
			Indexes: []string{ColCommunityID, ColAuthor},
		},
		Comments: Table{
			Entity: entities.Comments,
			Columns: []Column{
				text(ColRequestID),
				text(ColAuthor),
				text(ColCID),
				nullableText(ColParentID),
				timestamp(ColCreatedAt),
				boolean(ColIsModerated),
			},
			Indexes: []string{ColRequestID, ColParentID},
		},
		Drafts: Table{
			Entity: entities.Drafts,
			Columns: []Column{
				text(ColCommunityID),
				text(ColRequestID),
				text(ColStatus),
				text(ColLatestVersionCID),
				nullableText(ColEscalatedProposalID),
				timestamp(ColCreatedAt),
				timestamp(ColUpdatedAt),
			},
			Indexes: []string{ColCommunityID, ColRequestID, ColEscalatedProposalID},
		},
		DraftVersions: Table{
			Entity: entities.DraftVersions,
			Columns: []Column{
				text(ColDraftID),
				bigint(ColVersionNumber),
				text(ColCID),
				text(ColContributor),
				timestamp(ColCreatedAt),
			},
			Indexes: []string{ColDraftID},
		},
		DraftReviews: Table{
			Entity: entities.DraftReviews,
			Columns: []Column{
				text(ColDraftID),
				text(ColReviewer),
				text(ColStance),
				nullableText(ColCommentCID),
				timestamp(ColCreatedAt),
			},
			Indexes: []string{ColDraftID},
		},
		Proposals: Table{
			Entity: entities.Proposals,
			Columns: []Column{
				text(ColCommunityID),
				text(ColProposer),
				text(ColDescriptionCID),
				text(ColDescriptionHash),
				textArray(ColTargets),
				textArray(ColValues),
				textArray(ColCalldatas),
				text(ColState),
				timestamp(ColCreatedAt),
				timestamp(ColQueuedAt),
				timestamp(ColExecutedAt),
				{Name: ColMultiChoiceOptions, Type: "INTEGER[]", Nullable: true},
			},
			Indexes: []string{ColCommunityID, ColState},
		},
		ProposalVotes: Table{
			Entity: entities.ProposalVotes,
			Columns: []Column{
				text(ColProposalID),
				text(ColVoter),
				numeric(ColWeight),
				{Name: ColOptionIndex, Type: "INTEGER", Nullable: true},
				timestamp(ColCastAt),
			},
			Indexes: []string{ColProposalID, ColVoter},
		},
		Claims: Table{
			Entity: entities.Claims,
			Columns: []Column{
				text(ColCommunityID),
				text(ColValuableActionID),
				text(ColClaimant),
				text(ColStatus),
				text(ColEvidenceManifestCID),
				timestamp(ColSubmittedAt),
				timestamp(ColResolvedAt),
			},
			Indexes: []string{ColCommunityID, ColClaimant},
		},
		JurorAssignments: Table{
			Entity: entities.JurorAssignments,
			Columns: []Column{
				text(ColClaimID),
				text(ColJuror),
				nullableNumeric(ColWeight),
				nullableText(ColDecision),
				timestamp(ColDecidedAt),
			},
			Indexes: []string{ColClaimID, ColJuror},
		},
		Checkpoints: Table{
			Entity: entities.Checkpoints,
			Columns: []Column{
				text(ColLastID),
				text(ColEvent),
				bigint(ColBlockNumber),
				timestamp(ColUpdatedAt),
			},
		},
	}
}

// Tables returns every table in creation order.
func (s *Schema) Tables() []Table {
	return []Table{
		s.Communities,
		s.Requests,
		s.Comments,
		s.Drafts,
		s.DraftVersions,
		s.DraftReviews,
		s.Proposals,
		s.ProposalVotes,
		s.Claims,
		s.JurorAssignments,
		s.Checkpoints,
	}
}

// Table finds the definition of an entity.
func (s *Schema) Table(e entities.Entity) (Table, bool) {
	for _, t := range s.Tables() {
		if t.Entity == e {
			return t, true
		}
	}
	return Table{}, false
}
