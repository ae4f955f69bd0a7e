// Package execx runs external commands with a bounded timeout and returns
// structured results instead of raising errors past its boundary.
package execx

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every command unless the caller overrides it.
const DefaultTimeout = 30 * time.Second

// Failure classification for unsuccessful runs.
var (
	ErrTimeout  = errors.New("command timed out")
	ErrNotFound = errors.New("executable not found")
	ErrExit     = errors.New("command exited with error")
)

// Result is the outcome of a single command invocation. Stdout and Stderr
// have trailing whitespace trimmed. When Succeeded is false, Err carries the
// classified failure and Stderr the tool's diagnostic output, so callers can
// apply domain-specific recovery instead of treating every failure the same.
type Result struct {
	Succeeded bool
	Stdout    string
	Stderr    string
	Err       error
}

// Runner executes external commands. The zero value uses DefaultTimeout.
type Runner struct {
	Timeout time.Duration
}

// Run invokes name with args, optionally in workdir dir. It never returns an
// error through a second channel: every failure shape (non-zero exit,
// timeout, missing executable) is folded into the Result.
func (r *Runner) Run(ctx context.Context, name string, args []string, dir string) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimRight(stdout.String(), " \t\r\n")
	errOut := strings.TrimRight(stderr.String(), " \t\r\n")

	if err == nil {
		return Result{Succeeded: true, Stdout: out, Stderr: errOut}
	}

	res := Result{Stdout: out, Stderr: errOut}
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.Err = ErrTimeout
		if res.Stderr == "" {
			res.Stderr = "command timed out"
		}
	case isNotFound(err):
		res.Err = ErrNotFound
		if res.Stderr == "" {
			res.Stderr = "command not found: " + name
		}
	default:
		res.Err = ErrExit
	}

	zap.S().Debugw("command failed",
		"cmd", name, "args", args, "dir", dir, "err", err, "stderr", res.Stderr)
	return res
}

func isNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) && errors.Is(pathErr.Err, fs.ErrNotExist)
}
