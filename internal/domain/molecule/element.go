package molecule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// Element is one periodic-table entry.  Mass is the conventional standard
// atomic weight in unified atomic mass units.
type Element struct {
	Symbol       string
	AtomicNumber int
	Mass         float64
}

// ElementTable resolves atomic symbols.  It is built once and is read-only
// afterwards, so a single table is shared by every worker.
type ElementTable struct {
	bySymbol    map[string]Element
	fingerprint string
}

var standardTable = newElementTable(standardElements)

// StandardElements returns the process-wide periodic table.
func StandardElements() *ElementTable {
	return standardTable
}

func newElementTable(elems []Element) *ElementTable {
	t := &ElementTable{bySymbol: make(map[string]Element, len(elems))}
	for _, e := range elems {
		t.bySymbol[e.Symbol] = e
	}
	t.fingerprint = fingerprintElements(t.bySymbol)
	return t
}

// Lookup returns the element for symbol.  Symbols are matched after
// normalising case ("CL" and "cl" both resolve to chlorine).  An unknown
// symbol yields an ELEM_001 error carrying the symbol in its detail.
func (t *ElementTable) Lookup(symbol string) (Element, error) {
	if e, ok := t.bySymbol[normalizeSymbol(symbol)]; ok {
		return e, nil
	}
	return Element{}, errors.New(errors.ErrCodeElementUnknown, "unknown atomic symbol").
		WithDetailf("symbol=%q", symbol)
}

// Fingerprint identifies the table's contents.  Two tables with the same
// entries share a fingerprint.
func (t *ElementTable) Fingerprint() string {
	return t.fingerprint
}

// Len reports how many elements the table knows.
func (t *ElementTable) Len() int {
	return len(t.bySymbol)
}

func fingerprintElements(bySymbol map[string]Element) string {
	symbols := make([]string, 0, len(bySymbol))
	for sym := range bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	h := sha256.New()
	for _, sym := range symbols {
		e := bySymbol[sym]
		fmt.Fprintf(h, "%s:%d:%x;", e.Symbol, e.AtomicNumber, e.Mass)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func normalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

var standardElements = []Element{
	{"H", 1, 1.008},
	{"He", 2, 4.002602},
	{"Li", 3, 6.94},
	{"Be", 4, 9.0121831},
	{"B", 5, 10.81},
	{"C", 6, 12.011},
	{"N", 7, 14.007},
	{"O", 8, 15.999},
	{"F", 9, 18.998403163},
	{"Ne", 10, 20.1797},
	{"Na", 11, 22.98976928},
	{"Mg", 12, 24.305},
	{"Al", 13, 26.9815385},
	{"Si", 14, 28.085},
	{"P", 15, 30.973761998},
	{"S", 16, 32.06},
	{"Cl", 17, 35.45},
	{"Ar", 18, 39.948},
	{"K", 19, 39.0983},
	{"Ca", 20, 40.078},
	{"Sc", 21, 44.955908},
	{"Ti", 22, 47.867},
	{"V", 23, 50.9415},
	{"Cr", 24, 51.9961},
	{"Mn", 25, 54.938044},
	{"Fe", 26, 55.845},
	{"Co", 27, 58.933194},
	{"Ni", 28, 58.6934},
	{"Cu", 29, 63.546},
	{"Zn", 30, 65.38},
	{"Ga", 31, 69.723},
	{"Ge", 32, 72.630},
	{"As", 33, 74.921595},
	{"Se", 34, 78.971},
	{"Br", 35, 79.904},
	{"Kr", 36, 83.798},
	{"Rb", 37, 85.4678},
	{"Sr", 38, 87.62},
	{"Y", 39, 88.90584},
	{"Zr", 40, 91.224},
	{"Nb", 41, 92.90637},
	{"Mo", 42, 95.95},
	{"Tc", 43, 98.0},
	{"Ru", 44, 101.07},
	{"Rh", 45, 102.90550},
	{"Pd", 46, 106.42},
	{"Ag", 47, 107.8682},
	{"Cd", 48, 112.414},
	{"In", 49, 114.818},
	{"Sn", 50, 118.710},
	{"Sb", 51, 121.760},
	{"Te", 52, 127.60},
	{"I", 53, 126.90447},
	{"Xe", 54, 131.293},
	{"Cs", 55, 132.90545196},
	{"Ba", 56, 137.327},
	{"Pt", 78, 195.084},
	{"Au", 79, 196.966569},
	{"Hg", 80, 200.592},
	{"Pb", 82, 207.2},
}

//Personal.AI order the ending
