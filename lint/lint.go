// Package lint wires rule selection, the analysis engine and the result
// cache into a reusable run coordinator. The CLI is a thin shell around it.
package lint

import (
	"context"
	"fmt"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/viant/afs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnoverse/glint/internal/cache"
	"github.com/gnoverse/glint/internal/engine"
	"github.com/gnoverse/glint/internal/lints"
	"github.com/gnoverse/glint/internal/rule"
	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

// ReadRule labels issues produced when a discovered file cannot be read.
// It is not a registered rule, so configuration cannot reference it.
const ReadRule = "read-error"

var desiredExtensions = map[string]bool{
	".go":  true,
	".gno": true,
}

// Runner analyzes files with a fixed rule selection. Building one validates
// the configuration; a built Runner is safe for concurrent use.
type Runner struct {
	cfg         Config
	logger      *zap.Logger
	fs          afs.Service
	registry    *rule.Registry
	sel         *rule.Selection
	eng         *engine.Engine
	store       *cache.Store
	failOn      tt.Severity
	fingerprint string
	jobs        int
	progress    bool
}

// Option adjusts a Runner during construction.
type Option func(*Runner)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithRegistry swaps the rule registry, mainly so embedders can lint with
// custom rule sets.
func WithRegistry(reg *rule.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithProgress draws a progress bar while files are processed.
func WithProgress(enabled bool) Option {
	return func(r *Runner) { r.progress = enabled }
}

// WithFS replaces the storage service used to read sources.
func WithFS(service afs.Service) Option {
	return func(r *Runner) { r.fs = service }
}

// NewRunner validates cfg against the rule registry and prepares the engine
// and the result cache. Unknown rule IDs and bad severities surface here as
// a ConfigError, before any file is touched.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:      cfg,
		logger:   zap.NewNop(),
		fs:       afs.New(),
		registry: lints.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	failOn, err := cfg.threshold()
	if err != nil {
		return nil, &ConfigError{err: err}
	}
	r.failOn = failOn

	sel, err := r.registry.Select(cfg.Enable, cfg.Disable, cfg.Severity)
	if err != nil {
		return nil, &ConfigError{err: err}
	}
	r.sel = sel
	r.fingerprint = sel.Fingerprint(failOn)
	r.eng = engine.New(sel)

	r.jobs = cfg.Jobs
	if r.jobs <= 0 {
		r.jobs = runtime.NumCPU()
	}

	if !cfg.NoCache {
		store, err := cache.Open(cfg.CacheDir)
		if err != nil {
			r.logger.Warn("result cache unavailable, running without it",
				zap.String("dir", cfg.CacheDir),
				zap.Error(err))
		} else {
			r.store = store
		}
	}
	return r, nil
}

// FailOn returns the severity threshold that makes a run fail.
func (r *Runner) FailOn() tt.Severity { return r.failOn }

// Selection exposes the effective rule set of this runner.
func (r *Runner) Selection() *rule.Selection { return r.sel }

// Cache returns the result cache, or nil when caching is off.
func (r *Runner) Cache() *cache.Store { return r.store }

// Run expands paths into lintable files, analyzes them in parallel and
// assembles the report. The report does not depend on worker scheduling: a
// run with one job and a run with many produce identical content. A
// canceled context aborts the run with ctx.Err().
func (r *Runner) Run(ctx context.Context, paths []string) (*tt.Report, error) {
	start := time.Now()

	files, err := r.expand(paths)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("starting run",
		zap.Int("files", len(files)),
		zap.Int("jobs", r.jobs),
		zap.Bool("cache", r.store != nil))

	var bar *progressbar.ProgressBar
	if r.progress && len(files) > 0 {
		bar = newProgressBar(len(files))
	}

	results := make([]tt.FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.lintFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	report := tt.NewReport(results, time.Since(start))
	r.logger.Debug("run finished",
		zap.Int("issues", report.Summary.Total()),
		zap.Int("cache_hits", report.Summary.CacheHits),
		zap.Duration("took", report.Duration))
	return report, nil
}

// RunSource analyzes one in-memory buffer, bypassing discovery and the
// cache. The path only labels positions in the returned issues.
func (r *Runner) RunSource(path string, src []byte) []tt.Issue {
	if path == "" {
		path = "source.go"
	}
	return r.eng.Lint(source.Build(path, src))
}

// lintFile produces the result for one file. Read failures become a
// synthetic issue rather than aborting the whole run; the only error
// returned is context cancellation.
func (r *Runner) lintFile(ctx context.Context, path string) (tt.FileResult, error) {
	data, err := r.fs.DownloadWithURL(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return tt.FileResult{}, ctx.Err()
		}
		r.logger.Error("cannot read file",
			zap.String("file", path),
			zap.Error(err))
		return tt.FileResult{Path: path, Issues: []tt.Issue{readIssue(path, err)}}, nil
	}

	hash := source.HashBytes(data)
	if r.store != nil {
		if issues, ok := r.store.Get(path, hash, r.fingerprint); ok {
			return tt.FileResult{Path: path, Issues: issues, FromCache: true}, nil
		}
	}

	issues := r.eng.Lint(source.Build(path, data))

	// A canceled analysis may be partial; never persist it.
	if r.store != nil && ctx.Err() == nil {
		if err := r.store.Put(path, hash, r.fingerprint, issues); err != nil {
			r.logger.Warn("cannot write cache entry",
				zap.String("file", path),
				zap.Error(err))
		}
	}
	return tt.FileResult{Path: path, Issues: issues}, nil
}

func readIssue(path string, err error) tt.Issue {
	pos := token.Position{Filename: path, Line: 1, Column: 1}
	return tt.Issue{
		Rule:     ReadRule,
		Severity: tt.SeverityError,
		Filename: path,
		Message:  fmt.Sprintf("cannot read file: %v", err),
		Start:    pos,
		End:      pos,
	}
}

// expand walks the given paths and collects lintable files. Directories are
// walked recursively; explicit files are kept only when their extension
// matches. The result is sorted and duplicate-free.
func (r *Runner) expand(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, configErrorf("cannot lint %s: %w", path, err)
		}
		if !info.IsDir() {
			if hasDesiredExtension(path) && !r.excluded(path) {
				add(path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if sub != path && r.excluded(sub) {
					return filepath.SkipDir
				}
				return nil
			}
			if hasDesiredExtension(sub) && !r.excluded(sub) {
				add(sub)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasDesiredExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)]
}

// excluded matches the configured patterns against the base name and the
// slash path.
func (r *Runner) excluded(path string) bool {
	base := filepath.Base(path)
	slashed := filepath.ToSlash(path)
	for _, pat := range r.cfg.Exclude {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, slashed); ok {
			return true
		}
	}
	return false
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Linting files..."),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
