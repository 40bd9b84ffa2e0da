// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package process runs external stage processors (scrapers, loaders) as
// checked, cancellable subprocesses with captured output and exit status.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// stderrTail bounds how much captured stderr an ExitError carries.
const stderrTail = 2048

// Command describes one subprocess invocation.
type Command struct {
	// Argv is the program and its arguments.
	Argv []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Timeout bounds the run. Zero means no timeout beyond ctx.
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Result holds what a finished subprocess produced.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ExitError reports a subprocess that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Runner executes stage processor commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// executor abstracts command execution for testing.
type executor interface {
	// Exec runs argv in dir, streaming output into stdout and stderr. It
	// returns the exit code when the process ran to completion.
	Exec(ctx context.Context, argv []string, dir string, stdout, stderr io.Writer) (int, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) Exec(ctx context.Context, argv []string, dir string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// ExecRunner is the Runner used in production.
type ExecRunner struct {
	exec executor
}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() *ExecRunner {
	return &ExecRunner{exec: osExecutor{}}
}

// Run executes cmd and waits for it. A non-zero exit returns an *ExitError
// alongside the Result; a timeout or cancellation returns the context error.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if len(cmd.Argv) == 0 || cmd.Argv[0] == "" {
		return Result{}, errors.New("empty command")
	}
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	start := time.Now()
	code, err := r.exec.Exec(ctx, cmd.Argv, cmd.Dir, &stdout, &stderr)
	res := Result{
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return res, fmt.Errorf("running %s: timed out after %s: %w", cmd, cmd.Timeout, err)
		}
		return res, fmt.Errorf("running %s: %w", cmd, err)
	}
	if code != 0 {
		tail := res.Stderr
		if len(tail) > stderrTail {
			tail = tail[len(tail)-stderrTail:]
		}
		return res, &ExitError{Command: cmd.String(), ExitCode: code, Stderr: tail}
	}
	return res, nil
}
