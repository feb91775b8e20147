// Package dispatch expands a selection into run requests and submits them
// concurrently to an engine, recording every run in the history store.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fentz26/blockwright/internal/audit"
	"github.com/fentz26/blockwright/internal/connectors"
	"github.com/fentz26/blockwright/internal/models"
	"github.com/fentz26/blockwright/internal/store"
)

// ErrRunFailed marks a run whose engine reported a non-zero exit code.
var ErrRunFailed = errors.New("run failed")

// RunResult is the outcome of one request.
type RunResult struct {
	Request models.RunRequest
	Status  models.RunStatus
	Result  *connectors.ExecResult
	Err     error
}

// Passed reports whether the run completed with a zero exit code.
func (r RunResult) Passed() bool {
	return r.Status == models.RunStatusPassed
}

// Dispatcher submits run requests to one engine.
type Dispatcher struct {
	engine connectors.Engine
	store  *store.Store
	pdr    *audit.PDRWriter
	config *Config
	log    *zap.Logger

	mu     sync.Mutex
	active int
	peak   int
}

// New creates a dispatcher. A nil store skips run recording.
func New(engine connectors.Engine, s *store.Store, pdr *audit.PDRWriter, cfg *Config, log *zap.Logger) *Dispatcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		engine: engine,
		store:  s,
		pdr:    pdr,
		config: cfg,
		log:    log,
	}
}

// Dispatch runs every request concurrently and waits for all of them.
// Results come back in request order. The returned error joins every failed
// run; a failure never cancels the others.
func (d *Dispatcher) Dispatch(ctx context.Context, reqs []models.RunRequest) ([]RunResult, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	results := make([]RunResult, len(reqs))
	var g errgroup.Group
	if limit := d.config.EngineLimit(d.engine.Name()); limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = d.runOne(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	err := errors.Join(errs...)

	d.log.Info("dispatch finished",
		zap.String("batch", reqs[0].BatchID),
		zap.Int("runs", len(reqs)),
		zap.Int("failed", len(errs)))
	if _, perr := d.pdr.Record("run.dispatch", reqs, audit.Outcome(err), reqs[0].BatchID,
		fmt.Sprintf("%d of %d runs failed on %s", len(errs), len(reqs), d.engine.Name())); perr != nil {
		d.log.Warn("record dispatch", zap.Error(perr))
	}
	return results, err
}

func (d *Dispatcher) runOne(ctx context.Context, req models.RunRequest) RunResult {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	d.mu.Lock()
	d.active++
	if d.active > d.peak {
		d.peak = d.active
	}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.active--
		d.mu.Unlock()
	}()

	log := d.log.With(zap.String("run", req.ID), zap.String("label", req.Label()))
	if d.store != nil {
		if _, err := d.store.CreateRun(req, d.engine.Name()); err != nil {
			log.Warn("record run start", zap.Error(err))
		}
	}

	log.Debug("run started")
	res, err := d.engine.Run(ctx, req)

	out := RunResult{Request: req, Result: res}
	var exitCode int
	var stdout, stderr string
	switch {
	case err != nil:
		out.Status = models.RunStatusErrored
		out.Err = fmt.Errorf("%s: %w", req.Label(), err)
		exitCode = -1
		stderr = err.Error()
	case res == nil:
		out.Status = models.RunStatusErrored
		out.Err = fmt.Errorf("%s: engine returned no result: %w", req.Label(), ErrRunFailed)
		exitCode = -1
	case !res.Passed():
		out.Status = models.RunStatusFailed
		out.Err = fmt.Errorf("%s: exit code %d: %w", req.Label(), res.ExitCode, ErrRunFailed)
	default:
		out.Status = models.RunStatusPassed
	}
	if res != nil {
		exitCode, stdout, stderr = res.ExitCode, res.Stdout, res.Stderr
	}
	log.Info("run finished", zap.String("status", string(out.Status)), zap.Int("exit_code", exitCode))

	if d.store != nil {
		if err := d.store.FinishRun(req.ID, out.Status, exitCode, stdout, stderr); err != nil {
			log.Warn("record run result", zap.Error(err))
		}
	}
	return out
}

// Stats returns current dispatcher statistics.
func (d *Dispatcher) Stats() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	return map[string]interface{}{
		"active_runs": d.active,
		"peak_runs":   d.peak,
		"engine":      d.engine.Name(),
		"max_runs":    d.config.EngineLimit(d.engine.Name()),
	}
}
