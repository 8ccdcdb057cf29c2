// Package molecule provides the structure-side domain model of the feature
// pipeline: atoms with resolved element data, immutable molecules parsed from
// XYZ records, and the mass-weighted neighbor ranking computed for an atom
// pair inside one molecule.
package molecule

import (
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom
// ─────────────────────────────────────────────────────────────────────────────

// Atom is one atom of a molecule.  Index is its 0-based position in the
// structure record; pair observations refer to atoms by this index.
type Atom struct {
	Index        int
	Symbol       string
	AtomicNumber int
	Mass         float64
	Position     r3.Vec
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule
// ─────────────────────────────────────────────────────────────────────────────

// Molecule is a named, ordered set of atoms.  It is never mutated after
// NewMolecule returns, so it may be read from any goroutine.
type Molecule struct {
	id    string
	atoms []Atom
}

// NewMolecule validates atoms and returns a molecule owning a private copy of
// them.  Atom indices are rewritten to match slice positions.
func NewMolecule(id string, atoms []Atom) (*Molecule, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("molecule id must not be empty")
	}
	if len(atoms) == 0 {
		return nil, errors.New(errors.ErrCodeStructureEmpty, "structure contains no atoms").
			WithDetailf("molecule=%s", id)
	}
	owned := make([]Atom, len(atoms))
	copy(owned, atoms)
	for i := range owned {
		owned[i].Index = i
		if owned[i].Mass <= 0 {
			return nil, errors.InvalidParam("atom mass must be positive").
				WithDetailf("molecule=%s index=%d symbol=%s", id, i, owned[i].Symbol)
		}
	}
	return &Molecule{id: id, atoms: owned}, nil
}

// ID returns the molecule identifier (the structure file stem).
func (m *Molecule) ID() string { return m.id }

// Len returns the atom count.
func (m *Molecule) Len() int { return len(m.atoms) }

// Atom returns the atom at index i.
func (m *Molecule) Atom(i int) (Atom, bool) {
	if i < 0 || i >= len(m.atoms) {
		return Atom{}, false
	}
	return m.atoms[i], true
}

// Atoms returns a copy of the atom list.
func (m *Molecule) Atoms() []Atom {
	out := make([]Atom, len(m.atoms))
	copy(out, m.atoms)
	return out
}

// Formula returns a Hill-ordered formula (C first, H second, then
// alphabetical), mainly for log lines.
func (m *Molecule) Formula() string {
	counts := make(map[string]int)
	var others []string
	for _, a := range m.atoms {
		if counts[a.Symbol] == 0 && a.Symbol != "C" && a.Symbol != "H" {
			others = append(others, a.Symbol)
		}
		counts[a.Symbol]++
	}
	sort.Strings(others)

	var sb strings.Builder
	write := func(sym string) {
		n := counts[sym]
		if n == 0 {
			return
		}
		sb.WriteString(sym)
		if n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
	}
	if counts["C"] > 0 {
		write("C")
		write("H")
	} else if counts["H"] > 0 {
		others = append(others, "H")
		sort.Strings(others)
	}
	for _, s := range others {
		write(s)
	}
	return sb.String()
}

// IDFromPath derives a molecule id from a structure file name or object key:
// the base name without its extension.
func IDFromPath(p string) string {
	base := path.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, path.Ext(base))
}

//Personal.AI order the ending
