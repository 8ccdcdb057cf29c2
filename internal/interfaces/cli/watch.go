package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/c-nielson/CS534-Final-Project/internal/application/features"
	"github.com/c-nielson/CS534-Final-Project/internal/config"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage"
	httpapi "github.com/c-nielson/CS534-Final-Project/internal/interfaces/http"
	"github.com/c-nielson/CS534-Final-Project/internal/interfaces/http/handlers"
)

// NewWatchCmd creates the watch command: run once, then re-run whenever the
// inputs or the configuration change, serving status over HTTP.
func NewWatchCmd() *cobra.Command {
	flags := &pipelineFlags{}
	var (
		addr     string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the pipeline when inputs or configuration change",
		Long: "watch runs the pipeline once, then again whenever a structure file, the pair\n" +
			"index or the configuration file changes.  Bursts of changes are coalesced.\n" +
			"Status is served at /healthz, /readyz, /metrics and /v1/runs/latest.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			flags.apply(cmd, &cfg.Pipeline)
			if cmd.Flags().Changed("http-addr") {
				cfg.Watch.HTTPAddr = addr
			}
			if cmd.Flags().Changed("debounce") {
				cfg.Watch.Debounce = debounce
			}
			if err := cfg.ValidateRun(); err != nil {
				return err
			}

			app, err := BuildApp(cfg, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer app.Close()

			w := NewWatcher(app, cfg, cliCtx.Logger)
			if cliCtx.ConfigPath != "" {
				err := config.Watch(cliCtx.ConfigPath, func(next *config.Config) {
					flags.apply(cmd, &next.Pipeline)
					if err := next.ValidateRun(); err != nil {
						cliCtx.Logger.Warn("reloaded configuration rejected", logging.Err(err))
						return
					}
					w.SetConfig(next)
					w.Poke("configuration changed")
				}, func(err error) {
					cliCtx.Logger.Warn("configuration reload failed", logging.Err(err))
				})
				if err != nil {
					return err
				}
			}
			return serveWatch(cmd.Context(), w, app, cfg.Watch.HTTPAddr, cliCtx.Logger)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "http-addr", config.DefaultWatchHTTPAddr, "status server listen address")
	cmd.Flags().DurationVar(&debounce, "debounce", config.DefaultWatchDebounce, "quiet period before a change triggers a run")
	return cmd
}

func serveWatch(ctx context.Context, w *Watcher, app *App, addr string, logger logging.Logger) error {
	router := httpapi.NewRouter(httpapi.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(Version, app.Checkers...),
		RunHandler:       handlers.NewRunHandler(app.Service, w, logger),
		Logger:           logger,
		MetricsCollector: app.Collector,
	})
	srv := httpapi.NewServer(addr, router, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error { return w.Loop(ctx) })
	g.Go(func() error { return w.WatchFiles(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		return srv.Stop(context.Background())
	})

	w.Trigger("startup")
	return g.Wait()
}

// ─────────────────────────────────────────────────────────────────────────────
// Watcher
// ─────────────────────────────────────────────────────────────────────────────

// Watcher serializes pipeline runs.  At most one run is queued behind the
// running one; further requests coalesce into it.
type Watcher struct {
	app    *App
	logger logging.Logger

	mu      sync.Mutex
	cfg     *config.Config
	timer   *time.Timer
	pending string

	queue chan string
	run   func(ctx context.Context, reason string)
}

// NewWatcher creates a Watcher running cfg's pipeline through app.
func NewWatcher(app *App, cfg *config.Config, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	w := &Watcher{app: app, cfg: cfg, logger: logger, queue: make(chan string, 1)}
	w.run = w.runOnce
	return w
}

// Config returns the configuration the next run will use.
func (w *Watcher) Config() *config.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// SetConfig replaces the configuration.  Backend sections (cache, broker,
// object store, metrics) keep the values the process started with.
func (w *Watcher) SetConfig(cfg *config.Config) {
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
	w.logger.Info("configuration reloaded; backend settings apply on restart")
}

// Trigger queues a run.  It returns false when one is already queued.
func (w *Watcher) Trigger(reason string) bool {
	select {
	case w.queue <- reason:
		return true
	default:
		return false
	}
}

// Poke triggers a run once no further Poke arrives within the debounce
// period.
func (w *Watcher) Poke(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = reason
	if w.timer == nil {
		w.timer = time.AfterFunc(w.cfg.Watch.Debounce, w.fire)
		return
	}
	w.timer.Reset(w.cfg.Watch.Debounce)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	reason := w.pending
	w.mu.Unlock()
	if !w.Trigger(reason) {
		w.logger.Debug("run already queued", logging.String("reason", reason))
	}
}

// Loop executes queued runs until ctx is done.
func (w *Watcher) Loop(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-w.queue:
			w.run(ctx, reason)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, reason string) {
	cfg := w.Config()
	log := w.logger.With(logging.String("trigger", reason))

	req, err := features.RunRequestFromConfig(cfg.Pipeline)
	if err != nil {
		log.Error("invalid pipeline configuration", logging.Err(err))
		return
	}
	report, err := w.app.Service.Run(ctx, req)
	pushMetrics(context.WithoutCancel(ctx), cfg, w.app, log)
	if err != nil {
		log.Error("watch run failed", logging.Err(err))
		return
	}
	log.Info("watch run finished",
		logging.String("run_id", report.Summary.RunID),
		logging.Int("rows_written", report.Summary.Rows.Written),
		logging.Bool("has_failures", report.Summary.HasFailures()))
}

// WatchFiles pokes the watcher whenever a local structure file or the local
// pair index changes.  Object-store inputs are not watched.
func (w *Watcher) WatchFiles(ctx context.Context) error {
	p := w.Config().Pipeline
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dirs := map[string]bool{}
	if p.Structures != "" && !storage.IsObjectURI(p.Structures) {
		dirs[filepath.Clean(p.Structures)] = true
	}
	pairIndex := ""
	if p.PairIndex != "" && !storage.IsObjectURI(p.PairIndex) {
		pairIndex = filepath.Clean(p.PairIndex)
		dirs[filepath.Dir(pairIndex)] = true
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return err
		}
	}
	structures := filepath.Clean(p.Structures)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			name := filepath.Clean(ev.Name)
			isStructure := filepath.Dir(name) == structures && storage.MatchesExt(name, p.Extension)
			if isStructure || name == pairIndex {
				w.Poke("changed: " + filepath.Base(name))
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watch error", logging.Err(err))
		}
	}
}

//Personal.AI order the ending
