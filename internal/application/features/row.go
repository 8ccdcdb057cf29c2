// Package features turns a pair index and a directory of structure files into
// the per-pair neighbor feature table.  Each structure file is processed by an
// independent task; tasks run on a bounded worker pool and their rows are
// gathered in submission order before serialization.
package features

import (
	"strconv"

	"github.com/c-nielson/CS534-Final-Project/internal/domain/molecule"
	"github.com/c-nielson/CS534-Final-Project/internal/domain/pairs"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// fixedColumns precede the neighbor slot columns in every output record.
var fixedColumns = []string{
	"id", "molecule_name",
	"atom_index_0", "atom_type_0", "atomic_number_0",
	"atom_index_1", "atom_type_1", "atomic_number_1",
	"pair_dist", "type", "scalar_coupling_constant",
}

// NeighborSlot is one ranked neighbor as written to the table.
type NeighborSlot struct {
	Symbol       string  `msgpack:"s" json:"symbol"`
	AtomicNumber int     `msgpack:"z" json:"atomic_number"`
	Distance     float64 `msgpack:"d" json:"distance"`
}

// OutputRow is one feature row: the pair row's own columns plus up to K
// neighbor slots.
type OutputRow struct {
	RowID         string         `msgpack:"id" json:"id"`
	MoleculeID    string         `msgpack:"mol" json:"molecule_name"`
	AtomIndexA    int            `msgpack:"a" json:"atom_index_0"`
	SymbolA       string         `msgpack:"sa" json:"atom_type_0"`
	AtomicNumberA int            `msgpack:"za" json:"atomic_number_0"`
	AtomIndexB    int            `msgpack:"b" json:"atom_index_1"`
	SymbolB       string         `msgpack:"sb" json:"atom_type_1"`
	AtomicNumberB int            `msgpack:"zb" json:"atomic_number_1"`
	PairDistance  float64        `msgpack:"pd" json:"pair_dist"`
	Category      string         `msgpack:"t" json:"type"`
	Target        float64        `msgpack:"y" json:"scalar_coupling_constant"`
	HasTarget     bool           `msgpack:"hy" json:"-"`
	Neighbors     []NeighborSlot `msgpack:"n" json:"neighbors"`
}

// NewOutputRow combines a pair row with its ranking.
func NewOutputRow(obs pairs.Observation, rk molecule.Ranking) OutputRow {
	slots := make([]NeighborSlot, len(rk.Neighbors))
	for i, n := range rk.Neighbors {
		slots[i] = NeighborSlot{Symbol: n.Symbol, AtomicNumber: n.AtomicNumber, Distance: n.Distance}
	}
	return OutputRow{
		RowID:         obs.RowID,
		MoleculeID:    obs.MoleculeID,
		AtomIndexA:    obs.AtomIndexA,
		SymbolA:       rk.AtomA.Symbol,
		AtomicNumberA: rk.AtomA.AtomicNumber,
		AtomIndexB:    obs.AtomIndexB,
		SymbolB:       rk.AtomB.Symbol,
		AtomicNumberB: rk.AtomB.AtomicNumber,
		PairDistance:  rk.PairDistance,
		Category:      obs.Category,
		Target:        obs.Target,
		HasTarget:     obs.HasTarget,
		Neighbors:     slots,
	}
}

// Header returns the column names for k neighbor slots.
func Header(k int) []string {
	h := make([]string, 0, len(fixedColumns)+3*k)
	h = append(h, fixedColumns...)
	for i := 1; i <= k; i++ {
		p := "n" + strconv.Itoa(i)
		h = append(h, p+"_type", p+"_number", p+"_dist")
	}
	return h
}

// Record renders the row as CSV fields padded to k slots.  Unfilled slots are
// written as an empty symbol with zero number and distance.
func (r OutputRow) Record(k int) []string {
	rec := make([]string, 0, len(fixedColumns)+3*k)
	target := ""
	if r.HasTarget {
		target = formatFloat(r.Target)
	}
	rec = append(rec,
		r.RowID, r.MoleculeID,
		strconv.Itoa(r.AtomIndexA), r.SymbolA, strconv.Itoa(r.AtomicNumberA),
		strconv.Itoa(r.AtomIndexB), r.SymbolB, strconv.Itoa(r.AtomicNumberB),
		formatFloat(r.PairDistance), r.Category, target,
	)
	for i := 0; i < k; i++ {
		if i < len(r.Neighbors) {
			n := r.Neighbors[i]
			rec = append(rec, n.Symbol, strconv.Itoa(n.AtomicNumber), formatFloat(n.Distance))
			continue
		}
		rec = append(rec, "", "0", "0")
	}
	return rec
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RowFailure records a pair row excluded from the table.
type RowFailure struct {
	RowID      string `msgpack:"id" yaml:"row_id" json:"row_id"`
	MoleculeID string `msgpack:"mol" yaml:"molecule" json:"molecule"`
	AtomIndexA int    `msgpack:"a" yaml:"atom_index_0" json:"atom_index_0"`
	AtomIndexB int    `msgpack:"b" yaml:"atom_index_1" json:"atom_index_1"`
	Code       string `msgpack:"c" yaml:"code" json:"code"`
	Category   string `msgpack:"cat" yaml:"category" json:"category"`
	Message    string `msgpack:"m" yaml:"message" json:"message"`
}

func newRowFailure(obs pairs.Observation, err error) RowFailure {
	code := errors.GetCode(err)
	return RowFailure{
		RowID:      obs.RowID,
		MoleculeID: obs.MoleculeID,
		AtomIndexA: obs.AtomIndexA,
		AtomIndexB: obs.AtomIndexB,
		Code:       code.String(),
		Category:   string(errors.CategoryForCode(code)),
		Message:    err.Error(),
	}
}

//Personal.AI order the ending
