package migrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Direction is the way a migration is being run.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Outcome tags the result of a single step.
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeAlreadyApplied Outcome = "already-applied"
	OutcomeFailed         Outcome = "failed"
)

// ErrAlreadyApplied may be returned by Step.Apply to report that the step
// found nothing to do.
var ErrAlreadyApplied = errors.New("migrations: step already applied")

// Step is one independent schema mutation.
type Step struct {
	Name string
	// Done reports whether the step's effect is already present. A nil Done
	// means the step is convergent and always runs.
	Done func(ctx context.Context, s Schema) (bool, error)
	// Apply performs the mutation.
	Apply func(ctx context.Context, s Schema) error
}

// Migration is a named pair of ordered step lists.
type Migration struct {
	ID   string
	Up   []Step
	Down []Step
}

// StepResult is the tagged outcome of one step.
type StepResult struct {
	Step    string
	Outcome Outcome
	Err     error
}

// Reason returns the failure text, or "" for successful steps.
func (r StepResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Summary collects the per-step results of one migration run.
type Summary struct {
	Migration string
	Direction Direction
	StartedAt time.Time
	Duration  time.Duration
	Results   []StepResult
}

// Failed returns the results whose step failed.
func (s Summary) Failed() []StepResult {
	var failed []StepResult
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

func (s Summary) HasFailures() bool {
	return len(s.Failed()) > 0
}

// Counts tallies results by outcome.
func (s Summary) Counts() map[Outcome]int {
	counts := map[Outcome]int{
		OutcomeApplied:        0,
		OutcomeAlreadyApplied: 0,
		OutcomeFailed:         0,
	}
	for _, r := range s.Results {
		counts[r.Outcome]++
	}
	return counts
}

// Outcome returns the outcome recorded for the named step.
func (s Summary) Outcome(step string) (Outcome, bool) {
	for _, r := range s.Results {
		if r.Step == step {
			return r.Outcome, true
		}
	}
	return "", false
}

// Recorder persists run summaries.
type Recorder interface {
	Record(ctx context.Context, summary Summary) error
}

// Runner executes migrations step by step. A failing step is recorded and
// logged, and the run moves on to the next step.
type Runner struct {
	schema   Schema
	log      *zap.Logger
	recorder Recorder
	now      func() time.Time
}

type RunnerOption func(*Runner)

// WithRecorder persists every summary after the run.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

func NewRunner(schema Schema, log *zap.Logger, opts ...RunnerOption) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{schema: schema, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Up(ctx context.Context, m Migration) Summary {
	return r.run(ctx, m.ID, DirectionUp, m.Up)
}

func (r *Runner) Down(ctx context.Context, m Migration) Summary {
	return r.run(ctx, m.ID, DirectionDown, m.Down)
}

// UpAll runs every migration forward in order.
func (r *Runner) UpAll(ctx context.Context, ms []Migration) []Summary {
	summaries := make([]Summary, 0, len(ms))
	for _, m := range ms {
		summaries = append(summaries, r.Up(ctx, m))
	}
	return summaries
}

// DownAll runs every migration backward, last one first.
func (r *Runner) DownAll(ctx context.Context, ms []Migration) []Summary {
	summaries := make([]Summary, 0, len(ms))
	for i := len(ms) - 1; i >= 0; i-- {
		summaries = append(summaries, r.Down(ctx, ms[i]))
	}
	return summaries
}

func (r *Runner) run(ctx context.Context, id string, dir Direction, steps []Step) Summary {
	log := r.log.With(zap.String("migration", id), zap.String("direction", string(dir)))
	summary := Summary{
		Migration: id,
		Direction: dir,
		StartedAt: r.now(),
		Results:   make([]StepResult, 0, len(steps)),
	}

	log.Info("migration started", zap.Int("steps", len(steps)))

	for i, step := range steps {
		result := r.runStep(ctx, step)
		summary.Results = append(summary.Results, result)

		fields := []zap.Field{
			zap.String("step", step.Name),
			zap.Int("position", i+1),
			zap.String("outcome", string(result.Outcome)),
		}
		if result.Outcome == OutcomeFailed {
			log.Warn("migration step failed", append(fields, zap.Error(result.Err))...)
			continue
		}
		log.Info("migration step finished", fields...)
	}

	summary.Duration = r.now().Sub(summary.StartedAt)
	counts := summary.Counts()
	log.Info("migration finished",
		zap.Int("applied", counts[OutcomeApplied]),
		zap.Int("already_applied", counts[OutcomeAlreadyApplied]),
		zap.Int("failed", counts[OutcomeFailed]),
		zap.Duration("duration", summary.Duration),
	)

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, summary); err != nil {
			log.Error("failed to record migration run", zap.Error(err))
		}
	}

	return summary
}

func (r *Runner) runStep(ctx context.Context, step Step) (result StepResult) {
	result.Step = step.Name

	defer func() {
		if p := recover(); p != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("panic: %v", p)
		}
	}()

	if err := ctx.Err(); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	if step.Done != nil {
		done, err := step.Done(ctx, r.schema)
		if err != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("check: %w", err)
			return result
		}
		if done {
			result.Outcome = OutcomeAlreadyApplied
			return result
		}
	}

	if err := step.Apply(ctx, r.schema); err != nil {
		if errors.Is(err, ErrAlreadyApplied) {
			result.Outcome = OutcomeAlreadyApplied
			return result
		}
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	result.Outcome = OutcomeApplied
	return result
}
