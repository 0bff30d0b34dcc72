// Package runner executes external conversion tools and captures their
// output, exit status and timing.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"document-converter/internal/logging"
)

// DefaultMaxParallel caps ExecuteBatch concurrency.
const DefaultMaxParallel = 4

// Command is one external tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries are appended to the inherited environment.
	Env []string
	// Binary marks stdout as non-loggable.
	Binary bool
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result captures one completed invocation.
type Result struct {
	Command  string
	Args     []string
	PID      int
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Seconds returns the wall-clock duration in seconds.
func (r Result) Seconds() float64 {
	return r.Duration.Seconds()
}

// Success reports a zero exit status.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

type execFunc func(ctx context.Context, cmd Command) (Result, error)

// Runner spawns commands. A non-zero exit status is reported through
// Result.ExitCode, not as an error; errors mean the command could not be
// started, waited for, or was cancelled.
type Runner struct {
	logger      *zap.Logger
	timeout     time.Duration
	maxParallel int
	exec        execFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout bounds every Execute call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithMaxParallel overrides the ExecuteBatch worker cap.
func WithMaxParallel(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxParallel = n
		}
	}
}

// New constructs a Runner that spawns real processes.
func New(logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger:      logging.OrNop(logger),
		maxParallel: DefaultMaxParallel,
	}
	r.exec = r.spawn
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewForTests constructs a Runner whose process execution is replaced by fn.
func NewForTests(logger *zap.Logger, fn func(ctx context.Context, cmd Command) (Result, error), opts ...Option) *Runner {
	r := New(logger, opts...)
	r.exec = fn
	return r
}

// Execute runs one command to completion and logs its outcome.
func (r *Runner) Execute(ctx context.Context, cmd Command) (Result, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return Result{}, errors.New("runner: empty command name")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res, err := r.exec(ctx, cmd)
	if err != nil {
		r.logger.Error("command failed to run",
			zap.String("command", cmd.String()),
			zap.Error(err))
		return res, err
	}

	res.Stdout = bytes.TrimSpace(res.Stdout)
	res.Stderr = bytes.TrimSpace(res.Stderr)
	r.logResult(cmd, res)
	return res, nil
}

func (r *Runner) logResult(cmd Command, res Result) {
	pid := zap.Int("pid", res.PID)
	if res.ExitCode != 0 {
		r.logger.Error("exited with status", pid, zap.Int("status", res.ExitCode))
	}
	r.logger.Info(fmt.Sprintf("completed in %02.4f", res.Seconds()), pid)

	if !cmd.Binary && len(res.Stdout) > 0 {
		r.logger.Info("stdout", pid, zap.ByteString("stdout", res.Stdout))
	}
	if len(res.Stderr) > 0 {
		r.logger.Info("stderr", pid, zap.ByteString("stderr", res.Stderr))
	}
}

// spawn executes cmd via os/exec.
func (r *Runner) spawn(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", c.Name, err)
	}
	pid := cmd.Process.Pid
	r.logger.Info("spawn", zap.Int("pid", pid), zap.String("command", c.String()))

	waitErr := cmd.Wait()
	res := Result{
		Command:  c.Name,
		Args:     append([]string(nil), c.Args...),
		PID:      pid,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(started),
	}
	if waitErr == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", c.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, fmt.Errorf("wait %s: %w", c.Name, waitErr)
}
