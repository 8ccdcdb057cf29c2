package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

func TestElementTable_Lookup(t *testing.T) {
	table := StandardElements()

	tests := []struct {
		symbol string
		want   Element
	}{
		{"H", Element{"H", 1, 1.008}},
		{"C", Element{"C", 6, 12.011}},
		{"N", Element{"N", 7, 14.007}},
		{"O", Element{"O", 8, 15.999}},
		{"F", Element{"F", 9, 18.998403163}},
		{"cl", Element{"Cl", 17, 35.45}},
		{" BR ", Element{"Br", 35, 79.904}},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, err := table.Lookup(tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestElementTable_UnknownSymbol(t *testing.T) {
	_, err := StandardElements().Lookup("Xx")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeElementUnknown))
	assert.True(t, errors.IsCategory(err, errors.CategoryLookup))
	assert.Contains(t, err.Error(), `"Xx"`)

	_, err = StandardElements().Lookup("")
	assert.True(t, errors.IsCode(err, errors.ErrCodeElementUnknown))
}

func TestElementTable_UniqueNumbers(t *testing.T) {
	seen := make(map[int]string)
	for _, e := range standardElements {
		prev, dup := seen[e.AtomicNumber]
		assert.False(t, dup, "atomic number %d used by %s and %s", e.AtomicNumber, prev, e.Symbol)
		seen[e.AtomicNumber] = e.Symbol
		assert.Positive(t, e.Mass, e.Symbol)
	}
	assert.Equal(t, len(standardElements), StandardElements().Len())
}

func TestElementTable_Fingerprint(t *testing.T) {
	std := StandardElements().Fingerprint()
	assert.Len(t, std, 16)
	assert.Equal(t, std, newElementTable(standardElements).Fingerprint())

	reversed := make([]Element, len(standardElements))
	for i, e := range standardElements {
		reversed[len(reversed)-1-i] = e
	}
	assert.Equal(t, std, newElementTable(reversed).Fingerprint(), "entry order does not matter")

	heavy := append([]Element(nil), standardElements...)
	heavy[0].Mass = 2.014
	assert.NotEqual(t, std, newElementTable(heavy).Fingerprint())
}
