// Package execx runs the vendor CLIs. A non-zero exit is returned as
// data, never as an error; only timeouts and start failures surface
// as errors.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Result captures everything one command invocation produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ErrorText returns the stderr content, falling back to stdout, for
// use in check messages about a failed command.
func (r Result) ErrorText() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stdout)
}

// Runner is the command execution surface consumed by the checks and
// the resolver, satisfied by *Executor and by test fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	RunRetry(ctx context.Context, retries uint64, name string, args ...string) (Result, error)
}

// Executor runs external commands with a bounded timeout.
type Executor struct {
	logger  zerolog.Logger
	timeout time.Duration
}

// New returns an Executor applying the given per-command timeout.
func New(logger zerolog.Logger, timeout time.Duration) *Executor {
	return &Executor{logger: logger, timeout: timeout}
}

// Run executes name with args and captures its output. The command is
// killed when the timeout elapses; that is reported as an error, as is
// a missing binary. A non-zero exit yields a nil error with ExitCode
// set.
func (e *Executor) Run(ctx context.Context, name string, args ...string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.logger.Debug().Str("cmd", name).Strs("args", args).Msg("executing command")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		e.logger.Debug().Str("cmd", name).Dur("timeout", e.timeout).Msg("command timed out")
		return res, fmt.Errorf("%s timed out after %s", name, e.timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			e.logger.Debug().Str("cmd", name).Int("exit_code", res.ExitCode).Msg("command failed")
			return res, nil
		}
		return res, fmt.Errorf("run %s: %w", name, err)
	}

	e.logger.Debug().Str("cmd", name).Str("out", firstLine(res.Stdout)).Msg("command completed")
	return res, nil
}

// RunRetry behaves like Run but retries transient failures (error or
// non-zero exit) with exponential backoff. The final attempt's result
// is returned under the same contract as Run.
func (e *Executor) RunRetry(ctx context.Context, retries uint64, name string, args ...string) (Result, error) {
	var (
		res    Result
		runErr error
	)
	operation := func() error {
		res, runErr = e.Run(ctx, name, args...)
		if runErr != nil {
			return runErr
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("%s exited %d", name, res.ExitCode)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	if err := backoff.Retry(operation, policy); err != nil && runErr != nil {
		return res, runErr
	}
	return res, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	if len(line) > 100 {
		return line[:100] + "..."
	}
	return line
}
