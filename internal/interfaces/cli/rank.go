package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c-nielson/CS534-Final-Project/internal/application/features"
	"github.com/c-nielson/CS534-Final-Project/internal/domain/molecule"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// NewRankCmd creates the rank command, which ranks the neighbors of one pair
// of one structure file.
func NewRankCmd() *cobra.Command {
	var (
		structure string
		pair      string
		neighbors int
		mode      string
		output    string
	)

	cmd := &cobra.Command{
		Use:     "rank",
		Short:   "Rank the nearest neighbors of a single atom pair",
		Example: `  nbfeat rank --structure dsgdb9nsd_000001.xyz --pair 1,0 --neighbors 4 --output table`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			a, b, err := parsePair(pair)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("neighbors") {
				neighbors = cliCtx.Config.Pipeline.Neighbors
			}
			if !cmd.Flags().Changed("mode") {
				mode = cliCtx.Config.Pipeline.Mode
			}
			m, err := molecule.ParseMetricMode(mode)
			if err != nil {
				return err
			}

			store, client, err := openStore(cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			if client != nil {
				defer client.Close()
			}

			svc := features.NewService(store, cliCtx.Logger)
			res, err := svc.RankOne(cmd.Context(), structure, a, b, neighbors, m)
			if err != nil {
				return err
			}
			if strings.EqualFold(output, "table") {
				return PrintResult(cmd, output, rankTable{res})
			}
			return PrintResult(cmd, output, res)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&structure, "structure", "", "structure file (path or s3:// URI)")
	fl.StringVar(&pair, "pair", "", "atom indices of the pair, as a,b")
	fl.IntVar(&neighbors, "neighbors", 0, "neighbors to list (default from configuration)")
	fl.StringVar(&mode, "mode", "", "distance metric: mass-weighted|unscaled (default from configuration)")
	fl.StringVarP(&output, "output", "o", "table", "output format: json|yaml|table")
	_ = cmd.MarkFlagRequired("structure")
	_ = cmd.MarkFlagRequired("pair")
	return cmd
}

// parsePair parses "a,b" into two atom indices.
func parsePair(s string) (int, int, error) {
	left, right, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, errors.InvalidParam("pair must be two atom indices separated by a comma").WithDetailf("pair=%q", s)
	}
	a, errA := strconv.Atoi(strings.TrimSpace(left))
	b, errB := strconv.Atoi(strings.TrimSpace(right))
	if errA != nil || errB != nil {
		return 0, 0, errors.InvalidParam("pair indices must be integers").WithDetailf("pair=%q", s)
	}
	return a, b, nil
}

// rankTable renders a RankResult as one line per neighbor.
type rankTable struct {
	*features.RankResult
}

func (t rankTable) TableHeaders() []string {
	return []string{"RANK", "INDEX", "SYMBOL", "Z", "DISTANCE"}
}

func (t rankTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t.Neighbors))
	for _, n := range t.Neighbors {
		rows = append(rows, []string{
			strconv.Itoa(n.Rank),
			strconv.Itoa(n.Index),
			n.Symbol,
			strconv.Itoa(n.AtomicNumber),
			strconv.FormatFloat(n.Distance, 'f', 6, 64),
		})
	}
	return rows
}

//Personal.AI order the ending
