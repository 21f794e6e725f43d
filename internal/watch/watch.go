// Package watch polls a directory and downgrades each new project file once.
//
// Runs are strictly sequential. A lock file inside the directory keeps a
// second watcher away, and the ledger remembers which file versions were
// already handled so restarts do not repeat work.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"prdowngrade/internal/config"
	"prdowngrade/internal/faults"
	"prdowngrade/internal/fileutil"
	"prdowngrade/internal/ledger"
	"prdowngrade/internal/logging"
	"prdowngrade/internal/pipeline"
	"prdowngrade/internal/project"
	"prdowngrade/internal/safety"
)

const (
	// LockName is the lock file created inside the watched directory.
	LockName = ".prdowngrade.lock"
	// ProcessedSuffix is appended to inputs consumed in rename mode.
	ProcessedSuffix = ".processed"

	defaultPollInterval = 5 * time.Second
)

// ErrLocked is returned when another watcher holds the directory lock.
var ErrLocked = errors.New("directory is already being watched")

// Runner executes one downgrade.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Options configures a Watcher.
type Options struct {
	Dir           string
	TargetVersion string
	OutputDir     string
	PollInterval  time.Duration
	SettleDelay   time.Duration
	MarkMode      string
	// Now defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps the [watch] and [downgrade] sections onto Options.
// A non-empty dir overrides the configured directory.
func OptionsFromConfig(cfg *config.Config, dir string) Options {
	opts := Options{
		Dir:           cfg.Watch.Dir,
		TargetVersion: cfg.Downgrade.TargetVersion,
		OutputDir:     cfg.Downgrade.OutputDir,
		PollInterval:  cfg.PollInterval(),
		SettleDelay:   cfg.SettleDelay(),
		MarkMode:      cfg.Watch.MarkMode,
	}
	if strings.TrimSpace(dir) != "" {
		opts.Dir = dir
	}
	return opts
}

// Summary counts what one scan did.
type Summary struct {
	Candidates int `json:"candidates"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d candidates, %d succeeded, %d failed, %d skipped", s.Candidates, s.Succeeded, s.Failed, s.Skipped)
}

func (s *Summary) add(o Summary) {
	s.Candidates += o.Candidates
	s.Succeeded += o.Succeeded
	s.Failed += o.Failed
	s.Skipped += o.Skipped
}

// Watcher processes new project files in a directory.
type Watcher struct {
	opts   Options
	runner Runner
	store  *ledger.Store
	logger *slog.Logger
	lock   *flock.Flock
}

// New constructs a Watcher. The runner and store are required.
func New(opts Options, runner Runner, store *ledger.Store, logger *slog.Logger) (*Watcher, error) {
	if runner == nil || store == nil {
		return nil, errors.New("watcher requires a runner and a ledger")
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("watch directory is not configured")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve watch directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory %s is not a directory", abs)
	}
	opts.Dir = abs
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.MarkMode == "" {
		opts.MarkMode = config.MarkModeLedger
	}
	if opts.MarkMode != config.MarkModeLedger && opts.MarkMode != config.MarkModeRename {
		return nil, fmt.Errorf("unsupported mark mode %q", opts.MarkMode)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	lockPath := filepath.Join(abs, LockName)
	return &Watcher{
		opts:   opts,
		runner: runner,
		store:  store,
		logger: logging.NewComponentLogger(logger, "watch").With(logging.String("dir", abs)),
		lock:   flock.New(lockPath),
	}, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string { return w.opts.Dir }

// Run holds the directory lock and scans until ctx is done. The returned
// summary totals every scan. Cancellation is not an error.
func (w *Watcher) Run(ctx context.Context) (Summary, error) {
	var total Summary
	if err := w.acquire(); err != nil {
		return total, err
	}
	defer w.release()

	w.logger.Info("watching directory",
		slog.Duration("poll_interval", w.opts.PollInterval),
		slog.Duration("settle_delay", w.opts.SettleDelay),
		logging.String("mark_mode", w.opts.MarkMode),
	)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()
	for {
		summary, err := w.scan(ctx)
		total.add(summary)
		if err != nil && ctx.Err() == nil {
			return total, err
		}
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping", logging.String("totals", total.String()))
			return total, nil
		case <-ticker.C:
		}
	}
}

// ScanOnce holds the directory lock for a single scan.
func (w *Watcher) ScanOnce(ctx context.Context) (Summary, error) {
	if err := w.acquire(); err != nil {
		return Summary{}, err
	}
	defer w.release()
	return w.scan(ctx)
}

func (w *Watcher) acquire() error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, w.opts.Dir)
	}
	return nil
}

func (w *Watcher) release() {
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release watch lock", logging.Error(err))
	}
}

type candidate struct {
	path string
	info fs.FileInfo
}

func (w *Watcher) scan(ctx context.Context) (Summary, error) {
	var summary Summary
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return summary, fmt.Errorf("read watch directory: %w", err)
	}

	cutoff := w.opts.Now().Add(-w.opts.SettleDelay)
	var pending []candidate
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(w.opts.Dir, name)
		if !safety.HasExtension(path) || safety.IsDowngraded(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return summary, fmt.Errorf("stat %s: %w", path, err)
		}
		summary.Candidates++
		if info.ModTime().After(cutoff) {
			w.logger.Debug("file not settled yet", logging.String(logging.FieldInput, path))
			summary.Skipped++
			continue
		}
		done, err := w.store.IsProcessed(ctx, path, info.Size(), info.ModTime())
		if err != nil {
			return summary, err
		}
		if done {
			summary.Skipped++
			continue
		}
		pending = append(pending, candidate{path: path, info: info})
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].info.ModTime().Before(pending[j].info.ModTime())
	})
	for _, c := range pending {
		if ctx.Err() != nil {
			break
		}
		ok, err := w.process(ctx, c)
		if err != nil {
			return summary, err
		}
		if !ok && ctx.Err() != nil {
			break
		}
		if ok {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	if summary.Succeeded+summary.Failed > 0 {
		w.logger.Info("scan complete", logging.String("summary", summary.String()))
	}
	return summary, nil
}

// process downgrades one file and records the outcome. The returned error is
// reserved for ledger failures; a failed downgrade reports false.
func (w *Watcher) process(ctx context.Context, c candidate) (bool, error) {
	runID := uuid.NewString()
	started := w.opts.Now()
	res, runErr := w.runner.Run(ctx, pipeline.Request{
		Input:         c.path,
		TargetVersion: w.opts.TargetVersion,
		OutputDir:     w.opts.OutputDir,
		RunID:         runID,
	})
	if runErr != nil && ctx.Err() != nil {
		// Interrupted runs are retried on the next start.
		return false, nil
	}

	record := ledger.Run{
		ID:            runID,
		Input:         c.path,
		TargetVersion: w.opts.TargetVersion,
		StartedAt:     started,
		FinishedAt:    w.opts.Now(),
	}
	if runErr != nil {
		record.Status = ledger.StatusFailed
		record.Message = runErr.Error()
		if kind, ok := faults.KindOf(runErr); ok {
			record.ErrorKind = string(kind)
		}
	} else {
		record.Status = ledger.StatusSucceeded
		record.Output = res.Output
		record.SourceVersion = res.PreviousVersion
		record.TargetVersion = res.TargetVersion
	}
	if record.TargetVersion == "" {
		record.TargetVersion = project.DefaultTargetVersion
	}

	// Finished runs are recorded even during shutdown.
	persistCtx := context.WithoutCancel(ctx)
	if err := w.store.RecordRun(persistCtx, record); err != nil {
		return false, err
	}
	if err := w.store.MarkProcessed(persistCtx, ledger.Entry{
		Path:        c.path,
		Size:        c.info.Size(),
		ModTime:     c.info.ModTime(),
		RunID:       runID,
		ProcessedAt: record.FinishedAt,
	}); err != nil {
		return false, err
	}

	if w.opts.MarkMode == config.MarkModeRename {
		if err := w.rename(c.path); err != nil {
			w.logger.Warn("failed to mark input as processed", logging.String(logging.FieldInput, c.path), logging.Error(err))
		}
	}
	return runErr == nil, nil
}

func (w *Watcher) rename(path string) error {
	return fileutil.PublishNoClobber(path, path+ProcessedSuffix)
}
