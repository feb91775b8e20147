// Package localexec runs generated suites through the Playwright test runner
// installed in the project, guarded by a command allowlist.
package localexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"regexp"
	"strings"

	"github.com/fentz26/blockwright/internal/connectors"
	"github.com/fentz26/blockwright/internal/models"
	"github.com/fentz26/blockwright/internal/regen"
)

// allowedCommands defines the strict allowlist of executable commands.
var allowedCommands = map[string][]string{
	"npx": {"playwright"},
}

// LocalExec implements the Engine interface by shelling out to
// `npx playwright test`.
type LocalExec struct {
	workDir string
}

var _ connectors.Engine = (*LocalExec)(nil)

// New creates a new LocalExec engine rooted at the project directory.
func New(workDir string) *LocalExec {
	return &LocalExec{workDir: workDir}
}

// Name returns the engine identifier.
func (l *LocalExec) Name() string {
	return "localexec"
}

// IsAllowed checks if a command is in the allowlist.
func (l *LocalExec) IsAllowed(cmd string, args []string) bool {
	allowedSubcmds, ok := allowedCommands[cmd]
	if !ok {
		return false
	}

	if len(args) == 0 {
		return false
	}

	// Check if the first arg (subcommand) is allowed
	subcmd := args[0]
	for _, allowed := range allowedSubcmds {
		if subcmd == allowed {
			return true
		}
	}
	return false
}

// Args builds the runner arguments for req. A case request narrows the run
// with a grep on the case title.
func Args(req models.RunRequest) []string {
	args := []string{"playwright", "test", path.Join(regen.OutputDir, req.File), "--project=" + req.Target}
	if !req.Headless {
		args = append(args, "--headed")
	}
	if req.Case != "" {
		args = append(args, "-g", regexp.QuoteMeta(req.Case))
	}
	return args
}

// Run executes req through the Playwright runner.
func (l *LocalExec) Run(ctx context.Context, req models.RunRequest) (*connectors.ExecResult, error) {
	if req.File == "" || req.Target == "" {
		return nil, fmt.Errorf("run %s: file and target are required", req.Label())
	}
	return l.Execute(ctx, "npx", Args(req))
}

// Execute runs a command if it's in the allowlist.
func (l *LocalExec) Execute(ctx context.Context, cmd string, args []string) (*connectors.ExecResult, error) {
	if !l.IsAllowed(cmd, args) {
		return nil, fmt.Errorf("%w: %s %s", connectors.ErrCommandNotAllowed, cmd, strings.Join(args, " "))
	}

	execCmd := exec.CommandContext(ctx, cmd, args...)
	if l.workDir != "" {
		execCmd.Dir = l.workDir
	}

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()

	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			return nil, fmt.Errorf("exec error: %w", err)
		}
	}

	return &connectors.ExecResult{
		Command:  cmd,
		Args:     args,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
