package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// XYZAtom is one line of a fixture structure file.
type XYZAtom struct {
	Symbol  string
	X, Y, Z float64
}

// CHHO is C(0,0,0) H(1,0,0) H(0,1,0) O(0,0,1), the hand-computed reference
// molecule.
var CHHO = []XYZAtom{
	{"C", 0, 0, 0},
	{"H", 1, 0, 0},
	{"H", 0, 1, 0},
	{"O", 0, 0, 1},
}

// XYZ renders atoms as an XYZ record.
func XYZ(comment string, atoms []XYZAtom) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n%s\n", len(atoms), comment)
	for _, a := range atoms {
		fmt.Fprintf(&sb, "%s %g %g %g\n", a.Symbol, a.X, a.Y, a.Z)
	}
	return sb.String()
}

// WriteXYZ writes dir/<id>.xyz and returns its path.
func WriteXYZ(t testing.TB, dir, id string, atoms []XYZAtom) string {
	t.Helper()
	return WriteFile(t, filepath.Join(dir, id+".xyz"), XYZ(id, atoms))
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// PairRow is one pair-index row.  An empty Target writes an empty cell.
type PairRow struct {
	ID, Molecule string
	A, B         int
	Type         string
	Target       string
}

// WritePairIndex writes a comma-separated pair table with a target column.
func WritePairIndex(t testing.TB, path string, rows []PairRow) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("id,molecule_name,atom_index_0,atom_index_1,type,scalar_coupling_constant\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "%s,%s,%d,%d,%s,%s\n", r.ID, r.Molecule, r.A, r.B, r.Type, r.Target)
	}
	return WriteFile(t, path, sb.String())
}

//Personal.AI order the ending
