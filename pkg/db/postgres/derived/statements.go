package derived

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/projection"
	"github.com/jackc/pgx/v5"
)

// statement is one parameterized SQL statement.
type statement struct {
	sql  string
	args []any
}

// buildStatement translates a mutation into SQL. The id is always $1 and
// columns are emitted in sorted order so the text is stable for a given shape.
// ok is false when the mutation has nothing to write.
func buildStatement(m projection.Mutation) (stmt statement, ok bool, err error) {
	if err := m.Validate(); err != nil {
		return statement{}, false, err
	}
	table := pgx.Identifier{m.Table.Name()}.Sanitize()
	key := pgx.Identifier{schema.KeyColumn}.Sanitize()

	if m.Delete {
		return statement{
			sql:  fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, key),
			args: []any{m.ID},
		}, true, nil
	}

	set := sortedKeys(m.Set)
	args := []any{m.ID}

	if m.Policy == projection.UpdateOnly {
		if len(set) == 0 {
			return statement{}, false, nil
		}
		assignments := make([]string, len(set))
		for i, col := range set {
			args = append(args, m.Set[col])
			assignments[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), len(args))
		}
		return statement{
			sql:  fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", table, strings.Join(assignments, ", "), key),
			args: args,
		}, true, nil
	}

	columns := []string{key}
	placeholders := []string{"$1"}
	add := func(fields projection.Fields, col string) {
		args = append(args, fields[col])
		columns = append(columns, pgx.Identifier{col}.Sanitize())
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	for _, col := range set {
		add(m.Set, col)
	}
	for _, col := range sortedKeys(m.OnInsert) {
		add(m.OnInsert, col)
	}

	conflict := "DO NOTHING"
	if m.Policy == projection.InsertOrUpdate && len(set) > 0 {
		updates := make([]string, len(set))
		for i, col := range set {
			ident := pgx.Identifier{col}.Sanitize()
			updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", ident, ident)
		}
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	return statement{
		sql: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
			table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), key, conflict),
		args: args,
	}, true, nil
}

func sortedKeys(fields projection.Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
