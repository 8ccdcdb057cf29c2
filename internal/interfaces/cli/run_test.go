package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c-nielson/CS534-Final-Project/internal/application/features"
	"github.com/c-nielson/CS534-Final-Project/internal/testutil"
)

type dataset struct {
	dir, structures, pairs, output, summary string
}

// newDataset writes the CHHO structure and a pair index referencing it.
// With broken set, a structure with an unknown element is added too.
func newDataset(t *testing.T, broken bool) dataset {
	t.Helper()
	dir := t.TempDir()
	d := dataset{
		dir:        dir,
		structures: filepath.Join(dir, "structures"),
		pairs:      filepath.Join(dir, "pairs.csv"),
		output:     filepath.Join(dir, "features.csv"),
		summary:    filepath.Join(dir, "summary.yaml"),
	}
	testutil.WriteXYZ(t, d.structures, "chho", testutil.CHHO)
	rows := []testutil.PairRow{
		{ID: "0", Molecule: "chho", A: 0, B: 1, Type: "1JHC", Target: "84.8"},
	}
	if broken {
		testutil.WriteXYZ(t, d.structures, "bad", []testutil.XYZAtom{{Symbol: "Qq"}, {Symbol: "H", X: 1}})
		rows = append(rows, testutil.PairRow{ID: "1", Molecule: "bad", A: 0, B: 1, Type: "1JHC", Target: "1"})
	}
	testutil.WritePairIndex(t, d.pairs, rows)
	return d
}

func (d dataset) args(extra ...string) []string {
	return append([]string{"run",
		"--pairs", d.pairs,
		"--structures", d.structures,
		"--output", d.output,
		"--summary", d.summary,
		"--workers", "2",
		"--neighbors", "3",
	}, extra...)
}

func TestRunCmd_WritesTable(t *testing.T) {
	d := newDataset(t, false)
	out, err := execute(t, d.args()...)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 rows")
	assert.Contains(t, out, "1 succeeded, 0 failed")

	data, err := os.ReadFile(d.output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(features.Header(3), ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,chho,0,C,6,1,H,1,1,1JHC,84.8,O,8,"))

	_, err = os.Stat(d.summary)
	assert.NoError(t, err)
}

func TestRunCmd_FailuresKeepExitZeroByDefault(t *testing.T) {
	d := newDataset(t, true)
	out, err := execute(t, d.args()...)
	require.NoError(t, err)
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "ELEM_001")
}

func TestRunCmd_FailOnErrors(t *testing.T) {
	d := newDataset(t, true)
	_, err := execute(t, d.args("--fail-on-errors")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailures, ExitCode(err))

	// The table is still written; the exit status only flags the failures.
	_, statErr := os.Stat(d.output)
	assert.NoError(t, statErr)
}

func TestRunCmd_ConfigFile(t *testing.T) {
	d := newDataset(t, false)
	cfgPath := testutil.WriteFile(t, filepath.Join(d.dir, "nbfeat.yaml"), strings.Join([]string{
		"pipeline:",
		"  pair_index: " + d.pairs,
		"  structures: " + d.structures,
		"  output: " + d.output,
		"  neighbors: 2",
		"  mode: unscaled",
		"log:",
		"  level: debug",
	}, "\n")+"\n")

	_, err := execute(t, "--config", cfgPath, "run", "--workers", "1")
	require.NoError(t, err)

	data, err := os.ReadFile(d.output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, strings.Join(features.Header(2), ","), lines[0])
	// Unscaled ranks the hydrogen first.
	assert.True(t, strings.HasPrefix(lines[1], "0,chho,0,C,6,1,H,1,1,1JHC,84.8,H,1,"))
}

func TestRunCmd_RequiresInputs(t *testing.T) {
	_, err := execute(t, "run", "--output", "x.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pair_index")
}

func TestRunCmd_RejectsBadMode(t *testing.T) {
	d := newDataset(t, false)
	_, err := execute(t, d.args("--mode", "euclid")...)
	assert.Error(t, err)
}

func TestRankCmd_JSON(t *testing.T) {
	d := newDataset(t, false)
	out, err := execute(t, "rank",
		"--structure", filepath.Join(d.structures, "chho.xyz"),
		"--pair", "0,1", "--neighbors", "5", "--output", "json")
	require.NoError(t, err)

	var res features.RankResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "chho", res.MoleculeID)
	assert.Equal(t, "mass-weighted", res.Mode)
	require.Len(t, res.Neighbors, 2)
	assert.Equal(t, "O", res.Neighbors[0].Symbol)
	assert.InDelta(t, 0.2900673977604097, res.Neighbors[0].Distance, 1e-12)
}

func TestRankCmd_Table(t *testing.T) {
	d := newDataset(t, false)
	out, err := execute(t, "rank",
		"--structure", filepath.Join(d.structures, "chho.xyz"),
		"--pair", "0,1", "--mode", "unscaled")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.Contains(t, lines[2], "H")
	assert.Contains(t, lines[2], "0.134488")
}

func TestRankCmd_Errors(t *testing.T) {
	d := newDataset(t, false)
	_, err := execute(t, "rank", "--structure", filepath.Join(d.structures, "chho.xyz"), "--pair", "0,9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAIR_001")

	_, err = execute(t, "rank", "--structure", filepath.Join(d.structures, "chho.xyz"))
	assert.Error(t, err, "--pair is required")
}

//Personal.AI order the ending
