// Package memory is an in-process derived store. It backs tests and
// single-node runs started with DERIVED_STORE=memory.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/desoc-network/govx/pkg/db/entities"
	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/projection"
)

// Store keeps every table as a map of rows keyed by id.
type Store struct {
	mu     sync.RWMutex
	tables map[entities.Entity]map[string]projection.Row
}

var _ projection.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[entities.Entity]map[string]projection.Row)}
}

// Get returns a copy of the row. Slice values are copied too.
func (s *Store) Get(ctx context.Context, table schema.Table, id string) (projection.Row, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.tables[table.Entity][id]
	if !ok {
		return nil, false, nil
	}
	return cloneRow(row), true, nil
}

// Apply validates every mutation before touching any row, so a batch is
// applied whole or not at all.
func (s *Store) Apply(ctx context.Context, mutations []projection.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, m := range mutations {
		if err := m.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range mutations {
		s.apply(m)
	}
	return nil
}

func (s *Store) apply(m projection.Mutation) {
	rows, ok := s.tables[m.Table.Entity]
	if !ok {
		rows = make(map[string]projection.Row)
		s.tables[m.Table.Entity] = rows
	}
	row, exists := rows[m.ID]

	switch {
	case m.Delete:
		delete(rows, m.ID)
	case exists && m.Policy == projection.InsertOrIgnore:
	case exists:
		for col, v := range m.Set {
			row[col] = cloneValue(v)
		}
	case m.Policy == projection.UpdateOnly:
	default:
		row = make(projection.Row, len(m.Table.Columns)+1)
		row[schema.KeyColumn] = m.ID
		for _, c := range m.Table.Columns {
			row[c.Name] = cloneValue(c.Zero)
		}
		for col, v := range m.OnInsert {
			row[col] = cloneValue(v)
		}
		for col, v := range m.Set {
			row[col] = cloneValue(v)
		}
		rows[m.ID] = row
	}
}

// Rows returns copies of every row of table, ordered by id.
func (s *Store) Rows(table schema.Table) []projection.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.tables[table.Entity]
	ids := slices.Sorted(maps.Keys(rows))
	out := make([]projection.Row, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneRow(rows[id]))
	}
	return out
}

// Count returns the number of rows in table.
func (s *Store) Count(table schema.Table) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table.Entity])
}

func cloneRow(row projection.Row) projection.Row {
	out := make(projection.Row, len(row))
	for col, v := range row {
		out[col] = cloneValue(v)
	}
	return out
}

// cloneValue copies the slice column types so stored rows never share
// backing arrays with callers.
func cloneValue(v any) any {
	switch val := v.(type) {
	case []string:
		return slices.Clone(val)
	case []int32:
		return slices.Clone(val)
	case []byte:
		return slices.Clone(val)
	default:
		return v
	}
}
