package pairs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// Column names of the pair index table.
const (
	ColumnID         = "id"
	ColumnMolecule   = "molecule_name"
	ColumnAtomIndexA = "atom_index_0"
	ColumnAtomIndexB = "atom_index_1"
	ColumnType       = "type"
	ColumnTarget     = "scalar_coupling_constant"
)

var requiredColumns = []string{ColumnID, ColumnMolecule, ColumnAtomIndexA, ColumnAtomIndexB, ColumnType}

// LoadOptions tunes Load.
type LoadOptions struct {
	// RequireTarget rejects tables without a scalar_coupling_constant column.
	// Unlabeled tables (a test split) load with HasTarget=false otherwise.
	RequireTarget bool

	// Comma is the field delimiter.  Zero means ','.
	Comma rune
}

// Load reads a delimited pair table with a header row.  Any malformed row
// aborts the load: the index is shared by every file task, so a partial table
// would silently drop features.
func Load(r io.Reader, opts LoadOptions) (*Index, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.New(apperrors.ErrCodePairIndexParseFailed, "pair index is empty")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePairIndexParseFailed, "failed to read pair index header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	required := requiredColumns
	if opts.RequireTarget {
		required = append(append([]string{}, requiredColumns...), ColumnTarget)
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, apperrors.New(apperrors.ErrCodePairIndexColumnMissing, "pair index is missing a required column").
				WithDetailf("column=%s", name)
		}
	}
	targetCol, hasTargetCol := cols[ColumnTarget]

	var rows []Observation
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodePairIndexParseFailed, "malformed pair index row")
		}
		line, _ := cr.FieldPos(0)

		obs := Observation{
			RowID:      strings.TrimSpace(rec[cols[ColumnID]]),
			MoleculeID: strings.TrimSpace(rec[cols[ColumnMolecule]]),
			Category:   strings.TrimSpace(rec[cols[ColumnType]]),
		}
		if obs.MoleculeID == "" {
			return nil, rowErr(line, "empty %s", ColumnMolecule)
		}
		if obs.AtomIndexA, err = strconv.Atoi(strings.TrimSpace(rec[cols[ColumnAtomIndexA]])); err != nil {
			return nil, rowErr(line, "%s is not an integer: %q", ColumnAtomIndexA, rec[cols[ColumnAtomIndexA]])
		}
		if obs.AtomIndexB, err = strconv.Atoi(strings.TrimSpace(rec[cols[ColumnAtomIndexB]])); err != nil {
			return nil, rowErr(line, "%s is not an integer: %q", ColumnAtomIndexB, rec[cols[ColumnAtomIndexB]])
		}
		if hasTargetCol {
			raw := strings.TrimSpace(rec[targetCol])
			if raw != "" {
				if obs.Target, err = strconv.ParseFloat(raw, 64); err != nil {
					return nil, rowErr(line, "%s is not a number: %q", ColumnTarget, raw)
				}
				obs.HasTarget = true
			} else if opts.RequireTarget {
				return nil, rowErr(line, "empty %s", ColumnTarget)
			}
		}
		rows = append(rows, obs)
	}
	return NewIndex(rows), nil
}

func rowErr(line int, format string, args ...interface{}) error {
	return apperrors.New(apperrors.ErrCodePairIndexParseFailed, "malformed pair index row").
		WithDetailf("line=%d: %s", line, fmt.Sprintf(format, args...))
}

//Personal.AI order the ending
