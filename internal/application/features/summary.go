package features

import (
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/c-nielson/CS534-Final-Project/internal/domain/pairs"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// FileCounts tallies file outcomes.
type FileCounts struct {
	Total     int `yaml:"total" json:"total"`
	Succeeded int `yaml:"succeeded" json:"succeeded"`
	Failed    int `yaml:"failed" json:"failed"`
	Skipped   int `yaml:"skipped" json:"skipped"`
	Cancelled int `yaml:"cancelled" json:"cancelled"`
}

// RowCounts tallies pair rows.  Unmatched counts rows whose molecule has no
// structure file.
type RowCounts struct {
	Indexed   int `yaml:"indexed" json:"indexed"`
	Written   int `yaml:"written" json:"written"`
	Excluded  int `yaml:"excluded" json:"excluded"`
	Unmatched int `yaml:"unmatched" json:"unmatched"`
}

// FileFailure describes a failed file task.
type FileFailure struct {
	File     string `yaml:"file" json:"file"`
	Molecule string `yaml:"molecule" json:"molecule"`
	Category string `yaml:"category" json:"category"`
	Code     string `yaml:"code" json:"code"`
	Message  string `yaml:"message" json:"message"`
}

// DistanceStats describes the first-neighbor metric across written rows.
type DistanceStats struct {
	Count  int     `yaml:"count" json:"count"`
	Min    float64 `yaml:"min" json:"min"`
	Mean   float64 `yaml:"mean" json:"mean"`
	StdDev float64 `yaml:"stddev" json:"stddev"`
	Max    float64 `yaml:"max" json:"max"`
}

// Summary is the per-run report.
type Summary struct {
	RunID             string         `yaml:"run_id" json:"run_id"`
	StartedAt         time.Time      `yaml:"started_at" json:"started_at"`
	FinishedAt        time.Time      `yaml:"finished_at" json:"finished_at"`
	Mode              string         `yaml:"mode" json:"mode"`
	K                 int            `yaml:"neighbors" json:"neighbors"`
	Workers           int            `yaml:"workers" json:"workers"`
	Cancelled         bool           `yaml:"cancelled" json:"cancelled"`
	Files             FileCounts     `yaml:"files" json:"files"`
	Rows              RowCounts      `yaml:"rows" json:"rows"`
	FirstNeighbor     *DistanceStats `yaml:"first_neighbor,omitempty" json:"first_neighbor,omitempty"`
	FailedFiles       []FileFailure  `yaml:"failed_files,omitempty" json:"failed_files,omitempty"`
	ExcludedRows      []RowFailure   `yaml:"excluded_rows,omitempty" json:"excluded_rows,omitempty"`
	MissingStructures []string       `yaml:"missing_structures,omitempty" json:"missing_structures,omitempty"`
}

// NewSummary builds the report of a finished (or cancelled) batch.
func NewSummary(runID string, started time.Time, mode string, k, workers int, index *pairs.Index, batch *BatchResult) *Summary {
	s := &Summary{
		RunID:      runID,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Mode:       mode,
		K:          k,
		Workers:    workers,
		Files: FileCounts{
			Total:     len(batch.Outcomes),
			Succeeded: batch.Succeeded,
			Failed:    batch.Failed,
			Skipped:   batch.Skipped,
			Cancelled: batch.Cancelled,
		},
		Cancelled: batch.Cancelled > 0,
	}

	seen := make(map[string]bool, len(batch.Outcomes))
	var first []float64
	for _, o := range batch.Outcomes {
		seen[o.Ref.MoleculeID] = true
		switch o.Status {
		case StatusFailed:
			code := errors.RootCode(o.Err)
			s.FailedFiles = append(s.FailedFiles, FileFailure{
				File:     o.Ref.Location,
				Molecule: o.Ref.MoleculeID,
				Category: string(errors.CategoryForCode(code)),
				Code:     code.String(),
				Message:  o.Err.Error(),
			})
		case StatusSucceeded:
			s.Rows.Written += len(o.Result.Rows)
			s.ExcludedRows = append(s.ExcludedRows, o.Result.RowFailures...)
			for _, r := range o.Result.Rows {
				if len(r.Neighbors) > 0 {
					first = append(first, r.Neighbors[0].Distance)
				}
			}
		}
	}
	s.Rows.Excluded = len(s.ExcludedRows)

	if index != nil {
		s.Rows.Indexed = index.Len()
		for _, id := range index.Molecules() {
			if !seen[id] {
				s.MissingStructures = append(s.MissingStructures, id)
				s.Rows.Unmatched += index.CountFor(id)
			}
		}
		sort.Strings(s.MissingStructures)
	}

	if len(first) > 0 {
		s.FirstNeighbor = &DistanceStats{
			Count:  len(first),
			Min:    floats.Min(first),
			Mean:   stat.Mean(first, nil),
			StdDev: stat.StdDev(first, nil),
			Max:    floats.Max(first),
		}
	}
	return s
}

// HasFailures reports whether any file or row failed.
func (s *Summary) HasFailures() bool {
	return s.Files.Failed > 0 || s.Rows.Excluded > 0
}

// WriteYAML encodes the summary.
func (s *Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(err, errors.ErrCodeOutputWriteFailed, "failed to write run summary")
	}
	return enc.Close()
}

// Log emits the summary at info level, with one warning per failed file.
func (s *Summary) Log(log logging.Logger) {
	log.Info("run summary",
		logging.String("run_id", s.RunID),
		logging.String("mode", s.Mode),
		logging.Int("neighbors", s.K),
		logging.Int("workers", s.Workers),
		logging.Int("files_total", s.Files.Total),
		logging.Int("files_succeeded", s.Files.Succeeded),
		logging.Int("files_failed", s.Files.Failed),
		logging.Int("files_skipped", s.Files.Skipped),
		logging.Int("files_cancelled", s.Files.Cancelled),
		logging.Int("rows_written", s.Rows.Written),
		logging.Int("rows_excluded", s.Rows.Excluded),
		logging.Int("missing_structures", len(s.MissingStructures)),
		logging.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)))
	for _, f := range s.FailedFiles {
		log.Warn("file failed",
			logging.String("file", f.File),
			logging.String("category", f.Category),
			logging.String("code", f.Code),
			logging.String("message", f.Message))
	}
}

//Personal.AI order the ending
