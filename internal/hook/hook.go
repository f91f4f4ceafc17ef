// Package hook executes shell hooks with a composed environment, optional
// rendered stdin, and a bounded retry policy.
package hook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/andrew-pa/dirorch/internal/config"
	"github.com/andrew-pa/dirorch/internal/hookenv"
)

// Outcome is the result of running a hook to its retry limit.
type Outcome int

const (
	// Success means some attempt exited 0, or there was no command to run.
	Success Outcome = iota
	// Exhausted means every attempt failed.
	Exhausted
)

// AttemptLogger is called once after each attempt with that attempt's error
// (nil on success). It is optional; pass nil to skip logging. attempt is
// 1-based.
type AttemptLogger func(attempt, total int, err error)

// Run executes spec's command up to retries+1 times, stopping at the first
// exit-0 attempt. stdinCtx, if non-nil, is the template context used to
// render spec.Stdin; a nil stdinCtx with a non-empty Stdin is an error from
// the caller's side and is not expected here (transition/init/completion
// call sites always supply one when Stdin is set).
func Run(spec config.HookSpec, env map[string]string, retries int, stdinCtx map[string]string, root string, onAttempt AttemptLogger) (Outcome, error) {
	if spec.Cmd == "" {
		return Success, nil
	}

	var stdin []byte
	if spec.Stdin != "" {
		rendered, err := hookenv.RenderStdin(spec.Stdin, stdinCtx, root)
		if err != nil {
			return Exhausted, fmt.Errorf("hook: %w", err)
		}
		stdin = []byte(rendered)
	}

	total := retries + 1
	var lastErr error
	for attempt := 1; attempt <= total; attempt++ {
		err := runOnce(spec.Cmd, env, stdin, root)
		if onAttempt != nil {
			onAttempt(attempt, total, err)
		}
		if err == nil {
			return Success, nil
		}
		lastErr = err
	}
	return Exhausted, lastErr
}

func runOnce(command string, env map[string]string, stdin []byte, workDir string) error {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = workDir
	cmd.Env = hookenv.ToEnvSlice(env)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if len(stdin) > 0 {
		cmd.Stdin = bytes.NewReader(stdin)
	} else {
		cmd.Stdin = io.NopCloser(bytes.NewReader(nil))
	}

	return checkExit(cmd.Run())
}

// checkExit turns a nil error, a nonzero exit, or a spawn failure into a
// single uniform "attempt failed" error, or nil on success.
func checkExit(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("hook: exited with status %d", exitErr.ExitCode())
	}
	return fmt.Errorf("hook: spawn failed: %w", err)
}
