// Package pairs models the labeled atom-pair table that drives feature
// extraction: one Observation per (molecule, atom pair) with its coupling
// type and target value, grouped by molecule in file order.
package pairs

// Observation is one row of the pair index.  AtomIndexA and AtomIndexB are
// 0-based positions into the molecule's atom list; they are kept in file order
// so output columns line up with the input.
type Observation struct {
	RowID      string
	MoleculeID string
	AtomIndexA int
	AtomIndexB int
	Category   string
	Target     float64
	HasTarget  bool
}

// Index is the loaded pair table.  It is built once and shared read-only by
// every file task.
type Index struct {
	rows       []Observation
	byMolecule map[string][]int
	molecules  []string
}

// NewIndex groups rows by molecule without reordering them.
func NewIndex(rows []Observation) *Index {
	ix := &Index{
		rows:       make([]Observation, len(rows)),
		byMolecule: make(map[string][]int),
	}
	copy(ix.rows, rows)
	for i, r := range ix.rows {
		if _, seen := ix.byMolecule[r.MoleculeID]; !seen {
			ix.molecules = append(ix.molecules, r.MoleculeID)
		}
		ix.byMolecule[r.MoleculeID] = append(ix.byMolecule[r.MoleculeID], i)
	}
	return ix
}

// Len returns the number of rows.
func (ix *Index) Len() int { return len(ix.rows) }

// ForMolecule returns the rows for id in table order.  The slice is a copy.
func (ix *Index) ForMolecule(id string) []Observation {
	positions := ix.byMolecule[id]
	if len(positions) == 0 {
		return nil
	}
	out := make([]Observation, len(positions))
	for i, p := range positions {
		out[i] = ix.rows[p]
	}
	return out
}

// Has reports whether any row references molecule id.
func (ix *Index) Has(id string) bool {
	_, ok := ix.byMolecule[id]
	return ok
}

// Molecules lists molecule ids in order of first appearance.
func (ix *Index) Molecules() []string {
	out := make([]string, len(ix.molecules))
	copy(out, ix.molecules)
	return out
}

// CountFor returns how many rows reference molecule id.
func (ix *Index) CountFor(id string) int {
	return len(ix.byMolecule[id])
}

//Personal.AI order the ending
