package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/c-nielson/CS534-Final-Project/internal/application/features"
	"github.com/c-nielson/CS534-Final-Project/internal/config"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
)

// pipelineFlags binds the pipeline settings shared by run and watch.  A
// flag overrides the configuration only when given explicitly.
type pipelineFlags struct {
	pairs         string
	structures    string
	output        string
	summary       string
	extension     string
	workers       int
	neighbors     int
	mode          string
	delimiter     string
	requireTarget bool
	strictCount   bool
	failOnErrors  bool
	timeout       time.Duration
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.pairs, "pairs", "", "pair index table (path or s3:// URI)")
	fl.StringVar(&f.structures, "structures", "", "directory of structure files (path or s3:// prefix)")
	fl.StringVar(&f.output, "output", "", "feature table to write")
	fl.StringVar(&f.summary, "summary", "", "run summary to write as YAML")
	fl.StringVar(&f.extension, "extension", config.DefaultExtension, "structure file extension")
	fl.IntVar(&f.workers, "workers", config.DefaultWorkers(), "concurrent file tasks")
	fl.IntVar(&f.neighbors, "neighbors", config.DefaultNeighbors, "neighbor slots per row (K)")
	fl.StringVar(&f.mode, "mode", config.DefaultMode, "distance metric: mass-weighted|unscaled")
	fl.StringVar(&f.delimiter, "delimiter", config.DefaultDelimiter, "pair index field delimiter")
	fl.BoolVar(&f.requireTarget, "require-target", false, "reject pair indexes without scalar_coupling_constant")
	fl.BoolVar(&f.strictCount, "strict-atom-count", false, "reject structure files whose atom count header disagrees")
	fl.BoolVar(&f.failOnErrors, "fail-on-errors", false, "exit with status 2 when any file or row failed")
	fl.DurationVar(&f.timeout, "timeout", 0, "cancel the run after this long (0 = no limit)")
}

func (f *pipelineFlags) apply(cmd *cobra.Command, p *config.PipelineConfig) {
	changed := cmd.Flags().Changed
	if changed("pairs") {
		p.PairIndex = f.pairs
	}
	if changed("structures") {
		p.Structures = f.structures
	}
	if changed("output") {
		p.Output = f.output
	}
	if changed("summary") {
		p.Summary = f.summary
	}
	if changed("extension") {
		p.Extension = f.extension
	}
	if changed("workers") {
		p.Workers = f.workers
	}
	if changed("neighbors") {
		p.Neighbors = f.neighbors
	}
	if changed("mode") {
		p.Mode = f.mode
	}
	if changed("delimiter") {
		p.Delimiter = f.delimiter
	}
	if changed("require-target") {
		p.RequireTarget = f.requireTarget
	}
	if changed("strict-atom-count") {
		p.StrictAtomCount = f.strictCount
	}
	if changed("fail-on-errors") {
		p.FailOnErrors = f.failOnErrors
	}
	if changed("timeout") {
		p.Timeout = f.timeout
	}
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	flags := &pipelineFlags{}
	var purgeCache bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute the neighbor feature table of a pair index",
		Example: `  nbfeat run --pairs train.csv --structures structures/ --output features.csv
  nbfeat run -c nbfeat.yaml --workers 16 --summary run.yaml --fail-on-errors`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			flags.apply(cmd, &cliCtx.Config.Pipeline)
			if err := cliCtx.Config.ValidateRun(); err != nil {
				return err
			}

			app, err := BuildApp(cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if purgeCache {
				if _, err := app.Service.PurgeCache(cmd.Context()); err != nil {
					return err
				}
			}
			return runPipeline(cmd, cliCtx.Config, app, cliCtx.Logger)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&purgeCache, "purge-cache", false, "drop cached file results before running")
	return cmd
}

// runPipeline executes one run and prints its outcome.
func runPipeline(cmd *cobra.Command, cfg *config.Config, app *App, logger logging.Logger) error {
	req, err := features.RunRequestFromConfig(cfg.Pipeline)
	if err != nil {
		return err
	}

	report, runErr := app.Service.Run(cmd.Context(), req)
	pushMetrics(context.WithoutCancel(cmd.Context()), cfg, app, logger)

	if report != nil {
		printReport(cmd, report)
	}
	if runErr != nil {
		return runErr
	}
	if cfg.Pipeline.FailOnErrors && report.Summary.HasFailures() {
		return &ExitCodeError{
			Code: ExitFailures,
			Err: fmt.Errorf("%d file(s) failed and %d row(s) were excluded",
				report.Summary.Files.Failed, report.Summary.Rows.Excluded),
		}
	}
	return nil
}

func printReport(cmd *cobra.Command, r *features.RunReport) {
	s := r.Summary
	out := cmd.OutOrStdout()
	if s.Cancelled {
		fmt.Fprintf(out, "run %s cancelled: %d of %d files not processed, no feature table written\n",
			s.RunID, s.Files.Cancelled, s.Files.Total)
	} else {
		fmt.Fprintf(out, "run %s wrote %d rows (%d bytes) to %s\n", s.RunID, s.Rows.Written, r.OutputBytes, r.Output)
	}
	fmt.Fprintf(out, "files: %d total, %d succeeded, %d failed, %d skipped\n",
		s.Files.Total, s.Files.Succeeded, s.Files.Failed, s.Files.Skipped)
	fmt.Fprintf(out, "rows: %d excluded, %d without a structure file\n", s.Rows.Excluded, s.Rows.Unmatched)
	for _, f := range s.FailedFiles {
		fmt.Fprintf(out, "  failed %s [%s %s] %s\n", f.File, f.Category, f.Code, f.Message)
	}
}

func pushMetrics(ctx context.Context, cfg *config.Config, app *App, logger logging.Logger) {
	if app.Metrics == nil || cfg.Metrics.PushGateway == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.Metrics.Push(ctx, cfg.Metrics.PushGateway, cfg.Metrics.JobName); err != nil {
		logger.Warn("failed to push metrics", logging.String("gateway", cfg.Metrics.PushGateway), logging.Err(err))
	}
}

//Personal.AI order the ending
