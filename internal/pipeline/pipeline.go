package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"prdowngrade/internal/container"
	"prdowngrade/internal/faults"
	"prdowngrade/internal/logging"
	"prdowngrade/internal/project"
	"prdowngrade/internal/safety"
)

// Codec reads and writes project containers.
type Codec interface {
	Decompress(ctx context.Context, path string) (project.Payload, error)
	Compress(ctx context.Context, payload project.Payload, dest string) error
}

// Request describes one downgrade.
type Request struct {
	Input string
	// TargetVersion defaults to project.DefaultTargetVersion when empty.
	TargetVersion string
	// OutputDir defaults to the input's directory when empty.
	OutputDir string
	// RunID is generated when empty.
	RunID string
}

// Result reports a completed downgrade.
type Result struct {
	RunID           string        `json:"run_id"`
	Input           string        `json:"input"`
	Output          string        `json:"output"`
	PreviousVersion string        `json:"previous_version"`
	TargetVersion   string        `json:"target_version"`
	ObjectID        string        `json:"object_id,omitempty"`
	Line            int           `json:"line"`
	Candidates      int           `json:"candidates"`
	AlreadyAtTarget bool          `json:"already_at_target"`
	StartedAt       time.Time     `json:"started_at"`
	Elapsed         time.Duration `json:"elapsed_ns"`
}

// Pipeline runs downgrades. A Pipeline holds no per-run state and may be
// reused for sequential runs.
type Pipeline struct {
	logger   *slog.Logger
	observer Observer
	codec    Codec
	now      func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver registers an observer for stage transitions.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithCodec replaces the container codec.
func WithCodec(c Codec) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.codec = c
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New builds a Pipeline using the default container codec.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: logging.NewNop(),
		codec:  container.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p
}

// run carries the state of one invocation through the stages.
type run struct {
	p   *Pipeline
	ctx context.Context
	// base carries the input and output paths; log adds run and stage.
	base *slog.Logger
	res  *Result
}

// Run downgrades req.Input. On failure the returned error is a *faults.Error
// and nothing exists at the output path that was not there before.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := req.TargetVersion
	if target == "" {
		target = project.DefaultTargetVersion
	}
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx = logging.WithRunID(ctx, runID)
	r := &run{
		p:    p,
		ctx:  ctx,
		base: p.logger.With(logging.String(logging.FieldInput, req.Input)),
		res: &Result{
			RunID:         runID,
			Input:         req.Input,
			TargetVersion: target,
			StartedAt:     p.now(),
		},
	}
	r.emit(StageStart, nil)

	res, err := r.execute(req)
	if err != nil {
		err = withPath(err, req.Input)
		r.fail(err)
		return nil, err
	}
	return res, nil
}

func (r *run) execute(req Request) (*Result, error) {
	res := r.res

	if err := safety.CheckExtension(req.Input); err != nil {
		return nil, err
	}
	if err := project.ValidateTarget(res.TargetVersion); err != nil {
		return nil, err
	}
	res.Output = safety.OutputPath(req.Input, req.OutputDir, res.TargetVersion)
	r.base = r.base.With(logging.String(logging.FieldOutput, res.Output))
	if err := safety.Validate(req.Input, res.Output); err != nil {
		return nil, err
	}
	r.emit(StageValidated, nil)

	if err := r.checkpoint("decompress"); err != nil {
		return nil, err
	}
	payload, err := r.p.codec.Decompress(r.ctx, req.Input)
	if err != nil {
		return nil, err
	}
	r.log().Debug("payload decompressed", logging.Int("bytes", len(payload)))
	r.emit(StageDecompressed, nil)

	if err := r.checkpoint("locate"); err != nil {
		return nil, err
	}
	rec, err := project.Locate(payload)
	if err != nil {
		return nil, err
	}
	res.PreviousVersion = rec.Version
	res.ObjectID = rec.ObjectID
	res.Line = rec.Line
	res.Candidates = rec.Candidates
	res.AlreadyAtTarget = rec.Version == res.TargetVersion
	if rec.Ambiguous() {
		r.log().Warn("multiple project records found; using the first",
			logging.Int("candidates", rec.Candidates),
			logging.Int("line", rec.Line),
			logging.String("object_id", rec.ObjectID),
		)
	}
	r.log().Debug("project version located",
		logging.String("previous_version", rec.Version),
		logging.Int("line", rec.Line),
	)
	r.emit(StageLocated, nil)

	if err := r.checkpoint("rewrite"); err != nil {
		return nil, err
	}
	rewritten, err := project.Rewrite(payload, rec, res.TargetVersion)
	if err != nil {
		return nil, err
	}
	r.emit(StageRewritten, nil)

	if err := r.checkpoint("compress"); err != nil {
		return nil, err
	}
	if err := r.p.codec.Compress(r.ctx, rewritten, res.Output); err != nil {
		return nil, err
	}
	r.emit(StageCompressed, nil)

	res.Elapsed = r.p.now().Sub(res.StartedAt)
	r.log().Info("downgrade complete",
		logging.String("previous_version", res.PreviousVersion),
		logging.String("target_version", res.TargetVersion),
		logging.Bool("already_at_target", res.AlreadyAtTarget),
		slog.Duration("elapsed", res.Elapsed),
	)
	r.emit(StageDone, nil)
	return res, nil
}

func (r *run) log() *slog.Logger {
	return logging.WithContext(r.ctx, r.base)
}

// checkpoint aborts the run when the context is done.
func (r *run) checkpoint(op string) error {
	if err := r.ctx.Err(); err != nil {
		return faults.Wrapf(faults.KindIO, op, r.res.Input, err, "cancelled")
	}
	return nil
}

func (r *run) emit(stage Stage, err error) {
	r.ctx = logging.WithStage(r.ctx, stage.String())
	r.log().Debug("stage transition")
	if r.p.observer == nil {
		return
	}
	r.p.observer.OnStage(Event{
		RunID:  r.res.RunID,
		Stage:  stage,
		Input:  r.res.Input,
		Output: r.res.Output,
		Err:    err,
		Time:   r.p.now(),
	})
}

func (r *run) fail(err error) {
	attrs := []logging.Attr{logging.Error(err)}
	if kind, ok := faults.KindOf(err); ok {
		attrs = append(attrs,
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.String(logging.FieldErrorHint, kind.Hint()),
		)
	}
	r.log().Error("downgrade failed", logging.Args(attrs...)...)
	r.emit(StageFailed, err)
}

// withPath fills in the input path on errors raised by path-agnostic
// helpers such as the locator.
func withPath(err error, path string) error {
	var fe *faults.Error
	if errors.As(err, &fe) && fe.Path == "" {
		fe.Path = path
	}
	return err
}
