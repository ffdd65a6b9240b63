package projection

import (
	"testing"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationValidate(t *testing.T) {
	sch := schema.Default()
	withInsert := Upsert(sch.Proposals, "1", Fields{schema.ColState: ProposalActive})
	withInsert.OnInsert = Fields{schema.ColProposer: "0xaa"}

	overlap := Upsert(sch.Proposals, "1", Fields{schema.ColState: ProposalActive})
	overlap.OnInsert = Fields{schema.ColState: ProposalQueued}

	updateInsert := Update(sch.Proposals, "1", nil)
	updateInsert.OnInsert = Fields{schema.ColProposer: "0xaa"}

	deleteFields := Remove(sch.DraftReviews, "1-0xaa")
	deleteFields.Set = Fields{schema.ColStance: "SUPPORT"}

	deleteUpsert := Remove(sch.DraftReviews, "1-0xaa")
	deleteUpsert.Policy = InsertOrUpdate

	tests := []struct {
		name    string
		m       Mutation
		wantErr bool
	}{
		{"upsert", Upsert(sch.Requests, "1", Fields{schema.ColStatus: "OPEN_DEBATE"}), false},
		{"upsert with insert-only fields", withInsert, false},
		{"delete", Remove(sch.DraftReviews, "1-0xaa"), false},
		{"missing table", Mutation{ID: "1", Policy: InsertOrUpdate}, true},
		{"undeclared table", Upsert(schema.Table{Entity: "blocks"}, "1", nil), true},
		{"empty id", Upsert(sch.Requests, "", nil), true},
		{"zero policy", Mutation{Table: sch.Requests, ID: "1"}, true},
		{"unknown column", Upsert(sch.Requests, "1", Fields{"nope": 1}), true},
		{"key column", Upsert(sch.Requests, "1", Fields{schema.KeyColumn: "2"}), true},
		{"column in both sets", overlap, true},
		{"insert fields on update", updateInsert, true},
		{"delete with fields", deleteFields, true},
		{"delete with upsert", deleteUpsert, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMutation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "insert_or_update", InsertOrUpdate.String())
	assert.Equal(t, "insert_or_ignore", InsertOrIgnore.String())
	assert.Equal(t, "update_only", UpdateOnly.String())
	assert.Equal(t, "policy(0)", Policy(0).String())
}
