package molecule

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// xyzHeaderLines is the number of leading lines (atom count, comment) that
// precede the atom records of an XYZ file.
const xyzHeaderLines = 2

// XYZParser reads single-frame XYZ records: an atom-count line, a comment
// line, then one "symbol x y z" line per atom in atom-index order.
type XYZParser struct {
	elements    ElementLookup
	strictCount bool
}

// XYZOption configures an XYZParser.
type XYZOption func(*XYZParser)

// WithStrictAtomCount makes the parser reject files whose header count does
// not match the number of atom lines.  By default the header is not checked.
func WithStrictAtomCount(strict bool) XYZOption {
	return func(p *XYZParser) { p.strictCount = strict }
}

// NewXYZParser returns a parser resolving symbols through elements.  A nil
// lookup selects StandardElements.
func NewXYZParser(elements ElementLookup, opts ...XYZOption) *XYZParser {
	if elements == nil {
		elements = StandardElements()
	}
	p := &XYZParser{elements: elements}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// xyzFormatVersion changes whenever Parse starts accepting or producing
// something different for the same input.
const xyzFormatVersion = 1

// CacheTag combines the format version, the atom-count check and the element
// table in use.  A lookup that cannot fingerprint itself is named by its
// type.
func (p *XYZParser) CacheTag() string {
	elems := fmt.Sprintf("%T", p.elements)
	if fp, ok := p.elements.(interface{ Fingerprint() string }); ok {
		elems = fp.Fingerprint()
	}
	return fmt.Sprintf("xyz%d:strict=%t:elements=%s", xyzFormatVersion, p.strictCount, elems)
}

// Parse reads one molecule.  Blank lines after the header are ignored.  Any
// malformed line fails the whole record (XYZ_001); an unknown symbol fails it
// with ELEM_001 so callers can tell lookup failures from syntax errors.
func (p *XYZParser) Parse(id string, r io.Reader) (*Molecule, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		lineNo   int
		declared = -1
		atoms    []Atom
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if lineNo <= xyzHeaderLines {
			if lineNo == 1 {
				if n, err := strconv.Atoi(line); err == nil {
					declared = n
				}
			}
			continue
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, parseErr(id, lineNo, "expected \"symbol x y z\", got %d fields", len(fields))
		}

		var pos [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, parseErr(id, lineNo, "non-numeric coordinate %q", fields[k+1])
			}
			pos[k] = v
		}

		elem, err := p.elements.Lookup(fields[0])
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "structure references an unknown element").
				WithDetailf("molecule=%s line=%d", id, lineNo)
		}

		atoms = append(atoms, Atom{
			Index:        len(atoms),
			Symbol:       elem.Symbol,
			AtomicNumber: elem.AtomicNumber,
			Mass:         elem.Mass,
			Position:     r3.Vec{X: pos[0], Y: pos[1], Z: pos[2]},
		})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStructureReadFailed, "failed to read structure").
			WithDetailf("molecule=%s", id)
	}
	if lineNo < xyzHeaderLines && len(atoms) == 0 {
		return nil, parseErr(id, lineNo, "truncated header")
	}
	if p.strictCount && declared >= 0 && declared != len(atoms) {
		return nil, parseErr(id, 1, "header declares %d atoms, found %d", declared, len(atoms))
	}

	return NewMolecule(id, atoms)
}

func parseErr(id string, line int, format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeStructureParseFailed, "malformed structure file").
		WithDetailf("molecule=%s line=%d: %s", id, line, fmt.Sprintf(format, args...))
}

//Personal.AI order the ending
