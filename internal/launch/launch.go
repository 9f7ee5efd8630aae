package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// waitDelay bounds how long Run waits for I/O after the child is killed.
const waitDelay = 2 * time.Second

// Spec describes one launch of the target program.
type Spec struct {
	Interpreter string
	Script      string
	Args        []string
	// Dir is the child's working directory; empty inherits the launcher's.
	Dir string
	// Env is the child's full environment; nil inherits the launcher's.
	Env []string
}

// argv returns the interpreter arguments: the script followed by Args.
func (s Spec) argv() []string {
	return append([]string{s.Script}, s.Args...)
}

// ---------------------------------------------------------------------------
// Runner - testable process launching with dependency injection
// ---------------------------------------------------------------------------

// commandFn builds the exec.Cmd for a launch.
type commandFn func(ctx context.Context, name string, args ...string) *exec.Cmd

// Runner starts the target program either attached (Run) or detached (Start).
type Runner struct {
	command commandFn
	stat    func(string) (os.FileInfo, error)
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	log     logrus.FieldLogger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCommand sets the command factory (for testing).
func WithCommand(fn commandFn) RunnerOption {
	return func(r *Runner) { r.command = fn }
}

// WithStat sets the function used to check that the script exists.
func WithStat(fn func(string) (os.FileInfo, error)) RunnerOption {
	return func(r *Runner) { r.stat = fn }
}

// WithStdio sets the standard streams handed to attached children.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdin, r.stdout, r.stderr = stdin, stdout, stderr
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logrus.FieldLogger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// NewRunner creates a Runner with production defaults.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		command: exec.CommandContext,
		stat:    os.Stat,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// checkScript verifies the script exists before handing it to the interpreter.
func (r *Runner) checkScript(spec Spec) error {
	info, err := r.stat(spec.Script)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrScriptNotFound, spec.Script)
		}
		return fmt.Errorf("cannot access script %s: %w", spec.Script, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrScriptNotFound, spec.Script)
	}
	return nil
}

// Run starts the program attached to the launcher's console and blocks
// until it exits. It returns the child's exit code; a non-zero exit is
// not an error. Canceling ctx kills the child.
func (r *Runner) Run(ctx context.Context, spec Spec) (int, error) {
	if err := r.checkScript(spec); err != nil {
		return -1, err
	}

	cmd := r.command(ctx, spec.Interpreter, spec.argv()...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin, cmd.Stdout, cmd.Stderr = r.stdin, r.stdout, r.stderr
	// Grandchildren may hold the output pipes open after a kill.
	cmd.WaitDelay = waitDelay

	log := r.log.WithFields(logrus.Fields{"interpreter": spec.Interpreter, "script": spec.Script})
	log.Debug("running attached")

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("%w %s: %v", ErrStartFailed, spec.Interpreter, err)
	}

	err := cmd.Wait()
	code := cmd.ProcessState.ExitCode()
	log.WithField("exit_code", code).Debug("child exited")

	if ctx.Err() != nil {
		return code, ctx.Err()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return code, fmt.Errorf("wait for %s: %w", spec.Interpreter, err)
	}
	return code, nil
}

// Start launches the program detached from the launcher and returns as
// soon as the process exists. The child gets no standard streams, and its
// handle is released so the launcher can exit without waiting.
func (r *Runner) Start(ctx context.Context, spec Spec) (int, error) {
	if err := r.checkScript(spec); err != nil {
		return 0, err
	}

	// The child must outlive ctx, so it is only checked, not bound.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cmd := r.command(context.Background(), spec.Interpreter, spec.argv()...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w %s: %v", ErrStartFailed, spec.Interpreter, err)
	}

	pid := cmd.Process.Pid
	r.log.WithFields(logrus.Fields{
		"interpreter": spec.Interpreter,
		"script":      spec.Script,
		"pid":         pid,
	}).Info("started detached")

	if err := cmd.Process.Release(); err != nil {
		r.log.WithError(err).Warn("release process handle")
	}
	return pid, nil
}
