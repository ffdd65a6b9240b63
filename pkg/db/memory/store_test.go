package memory

import (
	"context"
	"testing"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPolicies(t *testing.T) {
	ctx := context.Background()
	sch := schema.Default()
	table := sch.Requests

	tests := []struct {
		name   string
		seed   bool
		m      projection.Mutation
		exists bool
		status string
	}{
		{"upsert inserts", false, projection.Upsert(table, "1", projection.Fields{schema.ColStatus: "NEW"}), true, "NEW"},
		{"upsert overwrites", true, projection.Upsert(table, "1", projection.Fields{schema.ColStatus: "NEW"}), true, "NEW"},
		{"insert ignore inserts", false, projection.InsertIgnore(table, "1", projection.Fields{schema.ColStatus: "NEW"}), true, "NEW"},
		{"insert ignore keeps existing", true, projection.InsertIgnore(table, "1", projection.Fields{schema.ColStatus: "NEW"}), true, "OLD"},
		{"update skips missing", false, projection.Update(table, "1", projection.Fields{schema.ColStatus: "NEW"}), false, ""},
		{"update changes existing", true, projection.Update(table, "1", projection.Fields{schema.ColStatus: "NEW"}), true, "NEW"},
		{"remove deletes", true, projection.Remove(table, "1"), false, ""},
		{"remove missing is a no-op", false, projection.Remove(table, "1"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			if tt.seed {
				require.NoError(t, s.Apply(ctx, []projection.Mutation{
					projection.Upsert(table, "1", projection.Fields{schema.ColStatus: "OLD"}),
				}))
			}
			require.NoError(t, s.Apply(ctx, []projection.Mutation{tt.m}))

			row, ok, err := s.Get(ctx, table, "1")
			require.NoError(t, err)
			require.Equal(t, tt.exists, ok)
			if ok {
				assert.Equal(t, tt.status, row[schema.ColStatus])
			}
		})
	}
}

func TestInsertFillsDefaults(t *testing.T) {
	ctx := context.Background()
	sch := schema.Default()
	s := New()

	require.NoError(t, s.Apply(ctx, []projection.Mutation{
		projection.Upsert(sch.Comments, "7", projection.Fields{schema.ColAuthor: "0xabc"}),
	}))

	row, ok, err := s.Get(ctx, sch.Comments, "7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "7", row[schema.KeyColumn])
	assert.Equal(t, "0xabc", row[schema.ColAuthor])
	assert.Equal(t, false, row[schema.ColIsModerated])
	assert.Nil(t, row[schema.ColParentID])
	assert.Len(t, row, len(sch.Comments.Columns)+1)
}

func TestOnInsertOnlyOnCreate(t *testing.T) {
	ctx := context.Background()
	sch := schema.Default()
	s := New()

	first := projection.Upsert(sch.Proposals, "9", projection.Fields{schema.ColState: "Active"})
	first.OnInsert = projection.Fields{schema.ColProposer: "0xfirst"}
	second := projection.Upsert(sch.Proposals, "9", projection.Fields{schema.ColState: "Queued"})
	second.OnInsert = projection.Fields{schema.ColProposer: "0xsecond"}

	require.NoError(t, s.Apply(ctx, []projection.Mutation{first}))
	require.NoError(t, s.Apply(ctx, []projection.Mutation{second}))

	row, _, err := s.Get(ctx, sch.Proposals, "9")
	require.NoError(t, err)
	assert.Equal(t, "0xfirst", row[schema.ColProposer])
	assert.Equal(t, "Queued", row[schema.ColState])
}

func TestApplyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	sch := schema.Default()
	s := New()

	err := s.Apply(ctx, []projection.Mutation{
		projection.Upsert(sch.Drafts, "1", projection.Fields{schema.ColStatus: "DRAFTING"}),
		projection.Upsert(sch.Drafts, "2", projection.Fields{"no_such_column": 1}),
	})
	require.ErrorIs(t, err, projection.ErrInvalidMutation)
	assert.Zero(t, s.Count(sch.Drafts))
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	sch := schema.Default()
	s := New()
	require.NoError(t, s.Apply(ctx, []projection.Mutation{
		projection.Upsert(sch.Communities, "1", projection.Fields{schema.ColName: "alpha"}),
	}))

	row, _, err := s.Get(ctx, sch.Communities, "1")
	require.NoError(t, err)
	row[schema.ColName] = "changed"

	again, _, err := s.Get(ctx, sch.Communities, "1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", again[schema.ColName])
}

func TestSliceValuesAreNotShared(t *testing.T) {
	ctx := context.Background()
	sch := schema.Default()
	s := New()
	tags := []string{"x", "y"}
	require.NoError(t, s.Apply(ctx, []projection.Mutation{
		projection.Upsert(sch.Requests, "7", projection.Fields{schema.ColTags: tags}),
		projection.Upsert(sch.Requests, "8", nil),
		projection.Upsert(sch.Proposals, "500", projection.Fields{schema.ColMultiChoiceOptions: []int32{0, 1}}),
	}))
	tags[0] = "caller"

	row, _, err := s.Get(ctx, sch.Requests, "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, row[schema.ColTags])
	row[schema.ColTags].([]string)[1] = "reader"

	proposal, _, err := s.Get(ctx, sch.Proposals, "500")
	require.NoError(t, err)
	proposal[schema.ColMultiChoiceOptions].([]int32)[0] = 9

	empty, _, err := s.Get(ctx, sch.Requests, "8")
	require.NoError(t, err)
	_ = append(empty[schema.ColTags].([]string), "appended")

	again, _, err := s.Get(ctx, sch.Requests, "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, again[schema.ColTags])
	assert.Equal(t, []int32{0, 1}, s.Rows(sch.Proposals)[0][schema.ColMultiChoiceOptions])
	assert.Equal(t, []string{}, s.Rows(sch.Requests)[1][schema.ColTags])
}

func TestRowsSortedByID(t *testing.T) {
	ctx := context.Background()
	sch := schema.Default()
	s := New()
	require.NoError(t, s.Apply(ctx, []projection.Mutation{
		projection.Upsert(sch.Communities, "b", nil),
		projection.Upsert(sch.Communities, "a", nil),
	}))

	rows := s.Rows(sch.Communities)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0][schema.KeyColumn])
	assert.Equal(t, "b", rows[1][schema.KeyColumn])
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()
	err := s.Apply(ctx, []projection.Mutation{projection.Upsert(schema.Default().Communities, "1", nil)})
	require.ErrorIs(t, err, context.Canceled)
}
