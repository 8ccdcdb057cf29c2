package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/c-nielson/CS534-Final-Project/internal/domain/molecule"
	"github.com/c-nielson/CS534-Final-Project/internal/domain/pairs"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

func TestHeader(t *testing.T) {
	h := Header(2)
	assert.Equal(t, []string{
		"id", "molecule_name",
		"atom_index_0", "atom_type_0", "atomic_number_0",
		"atom_index_1", "atom_type_1", "atomic_number_1",
		"pair_dist", "type", "scalar_coupling_constant",
		"n1_type", "n1_number", "n1_dist",
		"n2_type", "n2_number", "n2_dist",
	}, h)
	assert.Len(t, Header(10), 11+30)
}

func TestOutputRow_RecordPadsEmptySlots(t *testing.T) {
	row := OutputRow{
		RowID: "7", MoleculeID: "m1",
		AtomIndexA: 0, SymbolA: "C", AtomicNumberA: 6,
		AtomIndexB: 1, SymbolB: "H", AtomicNumberB: 1,
		PairDistance: 1.5, Category: "1JHC",
		Target: 84.8076, HasTarget: true,
		Neighbors: []NeighborSlot{{Symbol: "O", AtomicNumber: 8, Distance: 0.25}},
	}

	rec := row.Record(3)
	require.Len(t, rec, len(Header(3)))
	assert.Equal(t, []string{"7", "m1", "0", "C", "6", "1", "H", "1", "1.5", "1JHC", "84.8076"}, rec[:11])
	assert.Equal(t, []string{"O", "8", "0.25", "", "0", "0", "", "0", "0"}, rec[11:])
}

func TestOutputRow_RecordUnlabeled(t *testing.T) {
	row := OutputRow{RowID: "1", MoleculeID: "m", Category: "2JHH"}
	assert.Equal(t, "", row.Record(1)[10])
}

func TestNewOutputRow(t *testing.T) {
	obs := pairs.Observation{RowID: "3", MoleculeID: "m", AtomIndexA: 2, AtomIndexB: 0, Category: "2JHC"}
	rk := molecule.Ranking{
		AtomA:        molecule.Atom{Index: 2, Symbol: "H", AtomicNumber: 1, Mass: 1.008, Position: r3.Vec{X: 1}},
		AtomB:        molecule.Atom{Index: 0, Symbol: "C", AtomicNumber: 6, Mass: 12.011},
		PairDistance: 1,
		Neighbors:    []molecule.Neighbor{{Index: 1, Symbol: "N", AtomicNumber: 7, Distance: 0.5}},
	}

	row := NewOutputRow(obs, rk)
	assert.Equal(t, "H", row.SymbolA)
	assert.Equal(t, 6, row.AtomicNumberB)
	assert.False(t, row.HasTarget)
	assert.Equal(t, []NeighborSlot{{Symbol: "N", AtomicNumber: 7, Distance: 0.5}}, row.Neighbors)
}

func TestNewRowFailure(t *testing.T) {
	obs := pairs.Observation{RowID: "9", MoleculeID: "m", AtomIndexA: 0, AtomIndexB: 12}
	err := errors.New(errors.ErrCodeAtomIndexOutOfRange, "atom index out of range")

	f := newRowFailure(obs, err)
	assert.Equal(t, "PAIR_001", f.Code)
	assert.Equal(t, "IndexRangeError", f.Category)
	assert.Equal(t, 12, f.AtomIndexB)
}
