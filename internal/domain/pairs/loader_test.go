package pairs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

const trainCSV = `id,molecule_name,atom_index_0,atom_index_1,type,scalar_coupling_constant
0,dsgdb9nsd_000001,1,0,1JHC,84.8076
1,dsgdb9nsd_000001,1,2,2JHH,-11.257
2,dsgdb9nsd_000002,1,0,1JHN,32.6889
3,dsgdb9nsd_000001,2,0,1JHC,84.8074
`

func TestLoad_GroupsByMoleculeInTableOrder(t *testing.T) {
	ix, err := Load(strings.NewReader(trainCSV), LoadOptions{RequireTarget: true})
	require.NoError(t, err)

	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, []string{"dsgdb9nsd_000001", "dsgdb9nsd_000002"}, ix.Molecules())
	assert.Equal(t, 3, ix.CountFor("dsgdb9nsd_000001"))
	assert.True(t, ix.Has("dsgdb9nsd_000002"))
	assert.False(t, ix.Has("dsgdb9nsd_000003"))
	assert.Nil(t, ix.ForMolecule("dsgdb9nsd_000003"))

	rows := ix.ForMolecule("dsgdb9nsd_000001")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"0", "1", "3"}, []string{rows[0].RowID, rows[1].RowID, rows[2].RowID})
	assert.Equal(t, Observation{
		RowID: "1", MoleculeID: "dsgdb9nsd_000001", AtomIndexA: 1, AtomIndexB: 2,
		Category: "2JHH", Target: -11.257, HasTarget: true,
	}, rows[1])

	rows[0].RowID = "mutated"
	assert.Equal(t, "0", ix.ForMolecule("dsgdb9nsd_000001")[0].RowID)
}

func TestLoad_UnlabeledTable(t *testing.T) {
	in := "id,molecule_name,atom_index_0,atom_index_1,type\n7,m,0,1,1JHC\n"

	ix, err := Load(strings.NewReader(in), LoadOptions{})
	require.NoError(t, err)
	rows := ix.ForMolecule("m")
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasTarget)

	_, err = Load(strings.NewReader(in), LoadOptions{RequireTarget: true})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePairIndexColumnMissing))
}

func TestLoad_ColumnOrderAndExtrasIgnored(t *testing.T) {
	in := "\ufefftype,extra,atom_index_1,atom_index_0,molecule_name,id\n3JHH,x, 4 ,2,m,9\n"

	ix, err := Load(strings.NewReader(in), LoadOptions{})
	require.NoError(t, err)
	rows := ix.ForMolecule("m")
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].AtomIndexA)
	assert.Equal(t, 4, rows[0].AtomIndexB)
	assert.Equal(t, "3JHH", rows[0].Category)
}

func TestLoad_Errors(t *testing.T) {
	header := "id,molecule_name,atom_index_0,atom_index_1,type,scalar_coupling_constant\n"
	tests := []struct {
		name  string
		input string
		code  apperrors.ErrorCode
	}{
		{"empty", "", apperrors.ErrCodePairIndexParseFailed},
		{"missing column", "id,molecule_name,atom_index_0,type\n", apperrors.ErrCodePairIndexColumnMissing},
		{"non integer index", header + "0,m,one,0,1JHC,1.0\n", apperrors.ErrCodePairIndexParseFailed},
		{"non numeric target", header + "0,m,1,0,1JHC,big\n", apperrors.ErrCodePairIndexParseFailed},
		{"wrong field count", header + "0,m,1,0\n", apperrors.ErrCodePairIndexParseFailed},
		{"empty molecule", header + "0,,1,0,1JHC,1.0\n", apperrors.ErrCodePairIndexParseFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := Load(strings.NewReader(tt.input), LoadOptions{})
			require.Error(t, err)
			assert.Nil(t, ix)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryParse))
		})
	}
}

func TestLoad_ReportsLineNumber(t *testing.T) {
	in := "id,molecule_name,atom_index_0,atom_index_1,type\n0,m,0,1,1JHC\n1,m,x,1,1JHC\n"
	_, err := Load(strings.NewReader(in), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line=3")
}

func TestLoad_CustomDelimiter(t *testing.T) {
	in := "id\tmolecule_name\tatom_index_0\tatom_index_1\ttype\n0\tm\t0\t1\t1JHC\n"
	ix, err := Load(strings.NewReader(in), LoadOptions{Comma: '\t'})
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
}
