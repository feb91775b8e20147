// Package interp runs a suite's actions directly against a browser driver.
// The rod and playwright engines share it and only supply the driver.
package interp

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fentz26/blockwright/internal/connectors"
	"github.com/fentz26/blockwright/internal/models"
	"github.com/fentz26/blockwright/internal/schema"
)

// Page is one browser tab.
type Page interface {
	// Do performs one validated action. URLs and file paths are already
	// resolved; shot is the file a screenshot action writes to.
	Do(ctx context.Context, a schema.Action, shot string) error
	// FailureShot saves a JPEG of the whole page to path.
	FailureShot(path string) error
	Close() error
}

// Driver opens pages in a connected browser.
type Driver interface {
	NewPage(ctx context.Context) (Page, error)
}

// Plan is the suite and cases one request resolves to.
type Plan struct {
	Env    schema.Env
	Suite  schema.TestSuite
	Cases  []schema.TestCase
	Target string
}

// Lookup resolves req against meta.
func Lookup(meta schema.ProjectMeta, req models.RunRequest) (*Plan, error) {
	idx := meta.SuiteIndex(req.Suite)
	if idx < 0 {
		return nil, fmt.Errorf("run %s: %w", req.Label(), &schema.NotFoundError{Kind: "suite", Name: req.Suite})
	}
	suite := meta.Suites[idx]
	cases, err := SelectCases(suite, req.Case)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", req.Label(), err)
	}
	return &Plan{Env: meta.Env, Suite: suite, Cases: cases, Target: req.Target}, nil
}

// SelectCases returns every case of suite, or only the named one.
func SelectCases(suite schema.TestSuite, name string) ([]schema.TestCase, error) {
	if name == "" {
		return suite.Cases, nil
	}
	if i := suite.CaseIndex(name); i >= 0 {
		return suite.Cases[i : i+1], nil
	}
	return nil, &schema.NotFoundError{Kind: "case", Name: name}
}

// ActionTimeout is the per-action timeout of env.
func ActionTimeout(env schema.Env) time.Duration {
	if env.Timeout <= 0 {
		return schema.DefaultTimeout * time.Millisecond
	}
	return time.Duration(env.Timeout) * time.Millisecond
}

// Runner executes one plan against one driver.
type Runner struct {
	driver Driver
	dir    string
	plan   *Plan
	log    *zap.Logger

	out, errOut bytes.Buffer
	shots       int
}

// NewRunner creates a runner writing screenshots under projectDir.
func NewRunner(d Driver, projectDir string, plan *Plan, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{driver: d, dir: projectDir, plan: plan, log: log}
}

// Run executes the plan and returns the number of failures. beforeAll and
// afterAll run on their own page; a failing beforeAll fails every case
// without running it.
func (r *Runner) Run(ctx context.Context) int {
	cases := r.plan.Cases
	if err := r.sharedHook(ctx, schema.BeforeAll); err != nil {
		for _, c := range cases {
			r.report(c.Name, fmt.Errorf("beforeAll: %w", err))
		}
		return len(cases)
	}

	failed := 0
	for _, c := range cases {
		if err := r.runCase(ctx, c); err != nil {
			failed++
			r.report(c.Name, err)
			continue
		}
		r.report(c.Name, nil)
	}

	if err := r.sharedHook(ctx, schema.AfterAll); err != nil {
		fmt.Fprintf(&r.errOut, "afterAll: %v\n", err)
		failed++
	}
	return failed
}

// Result packages the runner output as an engine result.
func (r *Runner) Result(command string, args []string, failed int) *connectors.ExecResult {
	res := &connectors.ExecResult{
		Command: command,
		Args:    args,
		Stdout:  r.out.String(),
		Stderr:  r.errOut.String(),
	}
	if failed > 0 {
		res.ExitCode = 1
	}
	return res
}

func (r *Runner) report(name string, err error) {
	suite := r.plan.Suite.Name
	if err != nil {
		fmt.Fprintf(&r.out, "FAIL %s > %s\n", suite, name)
		fmt.Fprintf(&r.errOut, "%s > %s: %v\n", suite, name, err)
		r.log.Info("case failed", zap.String("case", name), zap.Error(err))
		return
	}
	fmt.Fprintf(&r.out, "ok   %s > %s\n", suite, name)
	r.log.Debug("case passed", zap.String("case", name))
}

func (r *Runner) sharedHook(ctx context.Context, phase schema.HookPhase) error {
	actions := r.plan.Suite.Hooks[phase]
	if len(actions) == 0 {
		return nil
	}
	page, err := r.driver.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer page.Close()
	return r.steps(ctx, page, "", actions)
}

func (r *Runner) runCase(ctx context.Context, c schema.TestCase) error {
	page, err := r.driver.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	hooks := r.plan.Suite.Hooks
	err = r.steps(ctx, page, c.Name, hooks[schema.BeforeEach])
	if err == nil {
		err = r.steps(ctx, page, c.Name, c.Actions)
	}
	if afterErr := r.steps(ctx, page, c.Name, hooks[schema.AfterEach]); err == nil {
		err = afterErr
	}
	if err != nil {
		path := ScreenshotPath(r.dir, r.plan.Suite.Name, c.Name, r.plan.Target, "failure", ".jpg")
		if shotErr := page.FailureShot(path); shotErr != nil {
			r.log.Debug("failure screenshot", zap.Error(shotErr))
		} else {
			fmt.Fprintf(&r.errOut, "  screenshot: %s\n", path)
		}
	}
	return err
}

func (r *Runner) steps(ctx context.Context, page Page, caseName string, actions []schema.Action) error {
	for i, a := range actions {
		if err := r.do(ctx, page, caseName, a); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, a.Type, err)
		}
	}
	return nil
}

func (r *Runner) do(ctx context.Context, page Page, caseName string, a schema.Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var shot string
	switch a.Type {
	case schema.ActionWait:
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a.Timeout) * time.Millisecond):
			return nil
		}
	case schema.ActionGoto:
		target, err := ResolveURL(r.plan.Env.BaseURL, a.URL)
		if err != nil {
			return err
		}
		a.URL = target
	case schema.ActionSetInputFiles:
		files := make([]string, len(a.Files))
		for i, f := range a.Files {
			if filepath.IsAbs(f) {
				files[i] = f
			} else {
				files[i] = filepath.Join(r.dir, f)
			}
		}
		a.Files = files
	case schema.ActionScreenshot:
		r.shots++
		shot = ScreenshotPath(r.dir, r.plan.Suite.Name, caseName, r.plan.Target, fmt.Sprint(r.shots), ".png")
	}
	return page.Do(ctx, a, shot)
}
