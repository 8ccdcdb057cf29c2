package molecule

import (
	"io"
)

// StructureParser turns one structure record into a Molecule.  id is the
// molecule identifier the record is filed under.  CacheTag names every
// setting that can change the result of Parse for the same bytes; results
// cached under one tag are never served to a parser with another.
type StructureParser interface {
	Parse(id string, r io.Reader) (*Molecule, error)
	CacheTag() string
}

// NeighborRanker ranks the atoms of a molecule against an atom pair.
type NeighborRanker interface {
	Rank(m *Molecule, a, b int) (Ranking, error)
	K() int
	Mode() MetricMode
}

// ElementLookup resolves atomic symbols.
type ElementLookup interface {
	Lookup(symbol string) (Element, error)
}

var (
	_ StructureParser = (*XYZParser)(nil)
	_ NeighborRanker  = (*Ranker)(nil)
	_ ElementLookup   = (*ElementTable)(nil)
)

//Personal.AI order the ending
