package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTableMap(t *testing.T) {
	tables := []StatusTable{RequestStatuses, DraftStatuses, ReviewStances, ClaimStatuses}
	for _, table := range tables {
		t.Run(table.Name(), func(t *testing.T) {
			values := table.Values()
			for code, want := range values {
				assert.Equal(t, want, table.Map(code))
			}
			for _, code := range []int{-1, len(values), len(values) + 1, 255} {
				assert.Equal(t, values[0], table.Map(code), "code %d", code)
			}
			assert.Equal(t, values[0], table.Initial())
		})
	}
}

func TestStatusTableValues(t *testing.T) {
	assert.Equal(t, []string{"OPEN_DEBATE", "FROZEN", "ARCHIVED"}, RequestStatuses.Values())
	assert.Equal(t, "WON", DraftStatuses.Map(4))
	assert.Equal(t, "REQUEST_CHANGES", ReviewStances.Map(3))
	assert.Equal(t, "REVOKED", ClaimStatuses.Map(3))

	v := RequestStatuses.Values()
	v[0] = "mutated"
	assert.Equal(t, "OPEN_DEBATE", RequestStatuses.Initial())
}

func TestNewStatusTablePanicsWhenEmpty(t *testing.T) {
	assert.Panics(t, func() { NewStatusTable("empty") })
}
