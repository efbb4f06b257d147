package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/extvars/internal/ir"
)

func TestAllOrderAndSize(t *testing.T) {
	all := All()
	assert.Len(t, all, 23)
	assert.Equal(t, Len(), len(all))
	assert.Equal(t, Global, all[0])
	assert.Equal(t, WorldIcon, all[len(all)-1])
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0] = "Mutated"
	assert.Equal(t, Global, All()[0])
}

func TestDefault(t *testing.T) {
	assert.Equal(t, ir.Category("Global"), Default())
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Vehicle"))
	assert.True(t, Contains("SFX"))
	assert.False(t, Contains("vehicle"))
	assert.False(t, Contains(""))
	assert.False(t, Contains("Weapon"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		tag  string
		want ir.Category
	}{
		{"Player", Player},
		{"", Global},
		{"Unknown", Global},
		{"player", Global},
		{"WaypointPath", WaypointPath},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.tag))
		})
	}
}

func TestIndex(t *testing.T) {
	assert.Equal(t, 0, Index(Global))
	assert.Equal(t, 8, Index(Player))
	assert.Equal(t, -1, Index("Nope"))
}
