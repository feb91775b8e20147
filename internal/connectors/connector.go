// Package connectors defines the engine interface generated suites are
// executed through.
package connectors

import (
	"context"
	"errors"

	"github.com/fentz26/blockwright/internal/models"
)

var (
	// ErrCommandNotAllowed is returned for commands outside an engine's allowlist.
	ErrCommandNotAllowed = errors.New("command not allowed")
	// ErrUnsupportedTarget is returned when an engine cannot drive a browser target.
	ErrUnsupportedTarget = errors.New("unsupported browser target")
)

// ExecResult holds the result of one engine run.
type ExecResult struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exit_code"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// Passed reports a zero exit code.
func (r *ExecResult) Passed() bool {
	return r != nil && r.ExitCode == 0
}

// Engine executes run requests.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// Run executes one request. A failing test is reported through
	// ExecResult.ExitCode; the error is reserved for runs that could not start.
	Run(ctx context.Context, req models.RunRequest) (*ExecResult, error)
}
