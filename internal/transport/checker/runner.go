// Package checker invokes the external compliance checker as a subprocess.
package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// DefaultBinary is the checker executable looked up on PATH.
const DefaultBinary = "compliance-checker"

// DefaultTimeout bounds a single invocation.
const DefaultTimeout = 10 * time.Minute

// waitDelay bounds how long Wait blocks on output pipes after the process is killed.
const waitDelay = 5 * time.Second

// Runner runs `<binary> -t <test> -f json <url>` under a per-call timeout.
type Runner struct {
	binary  string
	timeout time.Duration
}

// NewRunner creates a runner. Empty binary and non-positive timeout fall back to defaults.
func NewRunner(binary string, timeout time.Duration) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{binary: binary, timeout: timeout}
}

// Args returns the argument vector for one (test, url) pair.
func (r *Runner) Args(test, url string) []string {
	return []string{r.binary, "-t", test, "-f", "json", url}
}

// Run invokes the checker and waits for it to exit.
// A non-zero exit status is not an error: it is reported in ExitCode.
// The returned error wraps ErrCheckerStart, ErrCheckTimeout or the parent context error.
func (r *Runner) Run(ctx context.Context, test, url string) (domain.CheckInvocation, error) {
	args := r.Args(test, url)
	inv := domain.CheckInvocation{Command: strings.Join(args, " "), ExitCode: -1}

	cmdCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, args[0], args[1:]...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		inv.Duration = time.Since(start)
		return inv, fmt.Errorf("%w: %s: %w", domain.ErrCheckerStart, r.binary, err)
	}
	waitErr := cmd.Wait()

	inv.Duration = time.Since(start)
	inv.Stdout = stdout.Bytes()
	inv.Stderr = stderr.Bytes()

	if ctx.Err() != nil {
		return inv, ctx.Err()
	}
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return inv, fmt.Errorf("%w after %s", domain.ErrCheckTimeout, r.timeout)
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		inv.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		inv.ExitCode = exitErr.ExitCode()
	default:
		return inv, fmt.Errorf("wait for checker: %w", waitErr)
	}
	return inv, nil
}

// HealthCheck reports whether the checker executable can be resolved.
func (r *Runner) HealthCheck(_ context.Context) error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCheckerStart, err)
	}
	return nil
}
