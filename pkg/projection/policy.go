package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/desoc-network/govx/pkg/db/schema"
)

// Policy is the conflict rule for a write keyed by id.
type Policy uint8

const (
	// InsertOrUpdate inserts the row or overwrites the Set columns of an existing one.
	InsertOrUpdate Policy = iota + 1
	// InsertOrIgnore inserts the row; an existing row is left untouched.
	InsertOrIgnore
	// UpdateOnly updates (or deletes) an existing row and is a no-op otherwise.
	UpdateOnly
)

func (p Policy) String() string {
	switch p {
	case InsertOrUpdate:
		return "insert_or_update"
	case InsertOrIgnore:
		return "insert_or_ignore"
	case UpdateOnly:
		return "update_only"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ErrInvalidMutation is returned by stores for mutations that fail Validate.
var ErrInvalidMutation = errors.New("invalid mutation")

// Fields maps column names to values. A nil value writes NULL.
type Fields map[string]any

// Row is a stored row keyed by column name, including schema.KeyColumn.
type Row map[string]any

// Mutation is one write against a derived table.
type Mutation struct {
	Table  schema.Table
	ID     string
	Policy Policy
	// Set is written on insert and, unless the policy is InsertOrIgnore, on update.
	Set Fields
	// OnInsert is written only when the row is created. It lets a second
	// producer of the same entity fill columns without overwriting the first
	// producer's values.
	OnInsert Fields
	// Delete removes the row. Only valid with UpdateOnly.
	Delete bool
}

// Upsert builds an InsertOrUpdate mutation.
func Upsert(t schema.Table, id string, set Fields) Mutation {
	return Mutation{Table: t, ID: id, Policy: InsertOrUpdate, Set: set}
}

// InsertIgnore builds an InsertOrIgnore mutation.
func InsertIgnore(t schema.Table, id string, set Fields) Mutation {
	return Mutation{Table: t, ID: id, Policy: InsertOrIgnore, Set: set}
}

// Update builds an UpdateOnly mutation.
func Update(t schema.Table, id string, set Fields) Mutation {
	return Mutation{Table: t, ID: id, Policy: UpdateOnly, Set: set}
}

// Remove builds an UpdateOnly delete.
func Remove(t schema.Table, id string) Mutation {
	return Mutation{Table: t, ID: id, Policy: UpdateOnly, Delete: true}
}

// Validate checks the mutation against its table definition.
func (m Mutation) Validate() error {
	if m.Table.Entity == "" {
		return fmt.Errorf("%w: no table", ErrInvalidMutation)
	}
	if !m.Table.Entity.IsValid() {
		return fmt.Errorf("%w: unknown table %s", ErrInvalidMutation, m.Table.Name())
	}
	if m.ID == "" {
		return fmt.Errorf("%w: empty id for %s", ErrInvalidMutation, m.Table.Name())
	}
	switch m.Policy {
	case InsertOrUpdate, InsertOrIgnore, UpdateOnly:
	default:
		return fmt.Errorf("%w: %s on %s", ErrInvalidMutation, m.Policy, m.Table.Name())
	}
	if m.Delete {
		if m.Policy != UpdateOnly {
			return fmt.Errorf("%w: delete requires %s", ErrInvalidMutation, UpdateOnly)
		}
		if len(m.Set) > 0 || len(m.OnInsert) > 0 {
			return fmt.Errorf("%w: delete with fields on %s", ErrInvalidMutation, m.Table.Name())
		}
		return nil
	}
	if m.Policy == UpdateOnly && len(m.OnInsert) > 0 {
		return fmt.Errorf("%w: insert fields on update-only %s", ErrInvalidMutation, m.Table.Name())
	}
	for _, fields := range []Fields{m.Set, m.OnInsert} {
		for col := range fields {
			if col == schema.KeyColumn {
				return fmt.Errorf("%w: %s.%s is the key", ErrInvalidMutation, m.Table.Name(), col)
			}
			if _, ok := m.Table.Column(col); !ok {
				return fmt.Errorf("%w: unknown column %s.%s", ErrInvalidMutation, m.Table.Name(), col)
			}
		}
	}
	for col := range m.OnInsert {
		if _, dup := m.Set[col]; dup {
			return fmt.Errorf("%w: %s.%s in both Set and OnInsert", ErrInvalidMutation, m.Table.Name(), col)
		}
	}
	return nil
}

// Reader gives handlers read access to current derived rows.
type Reader interface {
	Get(ctx context.Context, table schema.Table, id string) (Row, bool, error)
}

// Writer applies the mutations produced for one event. Implementations must
// apply all of them or none.
type Writer interface {
	Apply(ctx context.Context, mutations []Mutation) error
}

// Store is a derived store.
type Store interface {
	Reader
	Writer
}
