// Package engine orchestrates pending-reboot checks across a set of
// targets.
//
// The engine iterates the requested targets, delegates each to the
// transport resolver, combines the probed signals into one tri-state
// verdict, and streams one CheckResult per target in input order. A
// RunSummary accumulates batch-wide flags as results are produced and
// is finalized when the target set is exhausted.
//
// Targets are independent: a malformed or unreachable target never
// aborts the batch, and results for one target are identical whether
// it is checked alone or alongside others. Processing may be
// concurrent (bounded by Options.Concurrency); emission order and
// result contents do not change.
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/smnsjas/rebootcheck/probe"
	"github.com/smnsjas/rebootcheck/resolver"
	"github.com/smnsjas/rebootcheck/tristate"
)

// Checker resolves one target into an outcome. *resolver.Resolver is
// the production implementation.
type Checker interface {
	Check(ctx context.Context, target string, enableFallback bool) resolver.Outcome
}

// Confirmer asks the operator whether a specific target may be
// restarted.
type Confirmer interface {
	Confirm(target string) bool
}

// Restarter issues the restart command against a target.
type Restarter interface {
	Restart(ctx context.Context, target string) error
}

// Recorder persists run summaries and per-target results. Optional.
type Recorder interface {
	RecordRun(ctx context.Context, sum Summary) error
	RecordResult(ctx context.Context, runID string, res CheckResult) error
}

// Logger is an optional interface for debug logging.
// If not set, no logging is performed.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Options controls one Run invocation.
type Options struct {
	// Prompt requests confirmation before restarting a target found to
	// need a reboot.
	Prompt bool
	// ShowStatus prints a human-readable status line per target.
	// Suppressed automatically when more than one target is processed;
	// this is presentation policy only and never affects results.
	ShowStatus bool
	// EnableFallback permits the degraded transport chain after a
	// primary transport failure.
	EnableFallback bool
	// Concurrency bounds parallel target processing. Zero or one means
	// sequential.
	Concurrency int
	// Status receives status lines. Defaults to io.Discard.
	Status io.Writer
}

// CheckResult is the engine's output unit for one target.
type CheckResult struct {
	Target                 string         `json:"target"`
	RebootRequired         tristate.Value `json:"rebootRequired"`
	Signals                probe.Signals  `json:"signals"`
	RemoteConnectionDenied bool           `json:"remoteConnectionDenied"`
	DeniedClass            string         `json:"remoteConnectionDeniedClass,omitempty"`
	DeniedReason           string         `json:"remoteConnectionDeniedReason,omitempty"`
}

// RegistryPending returns the registry signal verdict.
func (r CheckResult) RegistryPending() tristate.Value { return r.Signals.Registry() }

// ServicingMarkerPresent returns the marker signal verdict.
func (r CheckResult) ServicingMarkerPresent() tristate.Value { return r.Signals.Marker() }

// Summary aggregates one Run invocation. Reset at the start of each
// run, finalized after the last target.
type Summary struct {
	RunID               string
	StartedAt           time.Time
	FinishedAt          time.Time
	Targets             int
	AnyRebootRequired   bool
	AnyConnectionDenied bool
	// RestartFailures lists targets whose confirmed restart command
	// failed. The corresponding CheckResult is unaffected.
	RestartFailures []string
}

// Engine runs pending-reboot checks. Construct with New; collaborators
// are optional and set with the Set methods before Run.
type Engine struct {
	mu sync.Mutex

	checker  Checker
	confirm  Confirmer
	restart  Restarter
	recorder Recorder

	logger     Logger
	slogLogger *slog.Logger

	last *Summary
}

// New creates an Engine over the given checker.
func New(checker Checker) *Engine {
	return &Engine{checker: checker}
}

// SetConfirmer sets the restart confirmation prompt.
func (e *Engine) SetConfirmer(c Confirmer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirm = c
}

// SetRestarter sets the restart trigger.
func (e *Engine) SetRestarter(r Restarter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restart = r
}

// SetRecorder sets the optional result history recorder.
func (e *Engine) SetRecorder(r Recorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = r
}

// SetLogger sets the logger for debug logging.
// This is optional - if not set, no logging is performed.
func (e *Engine) SetLogger(logger Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger = logger
}

// SetSlogLogger sets a structured logger for debug logging.
func (e *Engine) SetSlogLogger(logger *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.slogLogger = logger
}

// EnableDebugLogging enables debug logging to stderr using the
// standard log package.
func (e *Engine) EnableDebugLogging() {
	e.SetLogger(log.New(log.Writer(), "[engine] ", log.LstdFlags))
}

func (e *Engine) logf(format string, v ...interface{}) {
	e.mu.Lock()
	logger := e.logger
	slogLogger := e.slogLogger
	e.mu.Unlock()

	if logger != nil {
		logger.Printf(format, v...)
	}
	if slogLogger != nil {
		slogLogger.Debug(fmt.Sprintf(format, v...))
	}
}

// LastSummary returns a copy of the most recent run's summary, or nil
// if no run has completed.
func (e *Engine) LastSummary() *Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return nil
	}
	cp := *e.last
	cp.RestartFailures = append([]string(nil), e.last.RestartFailures...)
	return &cp
}

// slot carries one worker's result to the in-order emitter. ok is
// false when the target was skipped due to cancellation; a
// half-completed target never produces a CheckResult.
type slot struct {
	res CheckResult
	ok  bool
}

// Run checks every target in order and calls emit once per completed
// target, in input order, before later targets necessarily finish.
// Blank targets are skipped silently. Run returns the finalized
// Summary; the error is non-nil only when the context was canceled.
func (e *Engine) Run(ctx context.Context, targets []string, opts Options, emit func(CheckResult)) (Summary, error) {
	cleaned := make([]string, 0, len(targets))
	for _, t := range targets {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	sum := Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Targets:   len(cleaned),
	}
	e.logf("run %s: %d target(s)", sum.RunID, len(cleaned))

	status := opts.Status
	if status == nil {
		status = io.Discard
	}
	// Batch usage suppresses per-target status lines to keep pipeline
	// output clean. Results are unaffected.
	showStatus := opts.ShowStatus && len(cleaned) == 1

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	slots := make([]chan slot, len(cleaned))
	for i := range slots {
		slots[i] = make(chan slot, 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	// Launch from a separate goroutine: g.Go blocks at the limit, and
	// results must stream out while later targets are still queued.
	go func() {
		for i, target := range cleaned {
			i, target := i, target
			g.Go(func() error {
				if gctx.Err() != nil {
					slots[i] <- slot{}
					return nil
				}
				out := e.checker.Check(gctx, target, opts.EnableFallback)
				if gctx.Err() != nil {
					// Canceled mid-target: do not surface a result that
					// may reflect a half-completed attempt.
					slots[i] <- slot{}
					return nil
				}
				slots[i] <- slot{res: buildResult(target, out), ok: true}
				return nil
			})
		}
	}()

	for i := range slots {
		s := <-slots[i]
		if !s.ok {
			continue
		}
		res := s.res

		sum.AnyRebootRequired = sum.AnyRebootRequired || res.RebootRequired == tristate.True
		sum.AnyConnectionDenied = sum.AnyConnectionDenied || res.RemoteConnectionDenied

		if emit != nil {
			emit(res)
		}
		if showStatus {
			fmt.Fprintln(status, statusLine(res))
		}
		e.record(ctx, sum.RunID, res)

		if opts.Prompt && res.RebootRequired == tristate.True {
			e.maybeRestart(ctx, res.Target, &sum)
		}
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	sum.FinishedAt = time.Now().UTC()
	e.mu.Lock()
	e.last = &sum
	e.mu.Unlock()

	e.recordRun(ctx, sum)
	e.logf("run %s finished: anyReboot=%v anyDenied=%v", sum.RunID, sum.AnyRebootRequired, sum.AnyConnectionDenied)
	return sum, err
}

// RunAll is a convenience wrapper that buffers all results.
func (e *Engine) RunAll(ctx context.Context, targets []string, opts Options) ([]CheckResult, Summary, error) {
	var results []CheckResult
	sum, err := e.Run(ctx, targets, opts, func(res CheckResult) {
		results = append(results, res)
	})
	return results, sum, err
}

func buildResult(target string, out resolver.Outcome) CheckResult {
	res := CheckResult{
		Target:                 target,
		Signals:                out.Signals,
		RebootRequired:         tristate.Resolve(out.Signals.Registry(), out.Signals.Marker()),
		RemoteConnectionDenied: out.ConnectionDenied,
	}
	if out.ConnectionDenied && out.Failure != nil {
		res.DeniedClass = out.Failure.Class.String()
		res.DeniedReason = out.Failure.Reason
	}
	return res
}

func (e *Engine) maybeRestart(ctx context.Context, target string, sum *Summary) {
	e.mu.Lock()
	confirm := e.confirm
	restart := e.restart
	e.mu.Unlock()

	if confirm == nil || restart == nil {
		return
	}
	if !confirm.Confirm(target) {
		e.logf("restart of %s declined", target)
		return
	}
	if err := restart.Restart(ctx, target); err != nil {
		e.logf("restart of %s failed: %v", target, err)
		sum.RestartFailures = append(sum.RestartFailures, target)
	}
}

func (e *Engine) record(ctx context.Context, runID string, res CheckResult) {
	e.mu.Lock()
	recorder := e.recorder
	e.mu.Unlock()
	if recorder == nil {
		return
	}
	if err := recorder.RecordResult(ctx, runID, res); err != nil {
		e.logf("record result for %s: %v", res.Target, err)
	}
}

func (e *Engine) recordRun(ctx context.Context, sum Summary) {
	e.mu.Lock()
	recorder := e.recorder
	e.mu.Unlock()
	if recorder == nil {
		return
	}
	if err := recorder.RecordRun(ctx, sum); err != nil {
		e.logf("record run %s: %v", sum.RunID, err)
	}
}

func statusLine(res CheckResult) string {
	if res.RemoteConnectionDenied {
		return fmt.Sprintf("%s: connection denied (%s): %s", res.Target, res.DeniedClass, res.DeniedReason)
	}
	return fmt.Sprintf("%s: reboot required=%s (RegistryPending=%s, ServicingMarkerPresent=%s)",
		res.Target, res.RebootRequired, res.RegistryPending(), res.ServicingMarkerPresent())
}
