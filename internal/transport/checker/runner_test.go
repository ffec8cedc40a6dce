package checker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "fake-checker")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunner_Args(t *testing.T) {
	r := NewRunner("", 0)
	got := strings.Join(r.Args("cf", "http://example.org/dap"), " ")
	if got != "compliance-checker -t cf -f json http://example.org/dap" {
		t.Errorf("args = %q", got)
	}
	if r.timeout != DefaultTimeout {
		t.Errorf("timeout = %s", r.timeout)
	}
}

func TestRunner_CapturesOutput(t *testing.T) {
	bin := writeScript(t, `echo "$@"; echo warn >&2`)

	inv, err := NewRunner(bin, time.Minute).Run(context.Background(), "acdd", "http://example.org/dap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(inv.Stdout)) != "-t acdd -f json http://example.org/dap" {
		t.Errorf("stdout = %q", inv.Stdout)
	}
	if strings.TrimSpace(string(inv.Stderr)) != "warn" {
		t.Errorf("stderr = %q", inv.Stderr)
	}
	if inv.ExitCode != 0 {
		t.Errorf("exit = %d", inv.ExitCode)
	}
	if inv.Command != bin+" -t acdd -f json http://example.org/dap" {
		t.Errorf("command = %q", inv.Command)
	}
}

func TestRunner_NonZeroExitIsNotError(t *testing.T) {
	bin := writeScript(t, `echo '{}'; exit 2`)

	inv, err := NewRunner(bin, time.Minute).Run(context.Background(), "cf", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.ExitCode != 2 {
		t.Errorf("exit = %d, want 2", inv.ExitCode)
	}
	if strings.TrimSpace(string(inv.Stdout)) != "{}" {
		t.Errorf("stdout = %q", inv.Stdout)
	}
}

func TestRunner_Timeout(t *testing.T) {
	bin := writeScript(t, `exec sleep 5`)

	_, err := NewRunner(bin, 100*time.Millisecond).Run(context.Background(), "cf", "u")
	if !errors.Is(err, domain.ErrCheckTimeout) {
		t.Fatalf("err = %v, want ErrCheckTimeout", err)
	}
}

func TestRunner_StartFailure(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "missing-checker")

	inv, err := NewRunner(bin, time.Minute).Run(context.Background(), "cf", "u")
	if !errors.Is(err, domain.ErrCheckerStart) {
		t.Fatalf("err = %v, want ErrCheckerStart", err)
	}
	if inv.Command == "" {
		t.Error("command should be recorded on start failure")
	}
}

func TestRunner_ParentCanceled(t *testing.T) {
	bin := writeScript(t, `exec sleep 5`)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewRunner(bin, time.Minute).Run(ctx, "cf", "u")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want parent deadline", err)
	}
	if errors.Is(err, domain.ErrCheckTimeout) {
		t.Error("parent cancellation is not a checker timeout")
	}
}

func TestRunner_HealthCheck(t *testing.T) {
	bin := writeScript(t, "exit 0")
	if err := NewRunner(bin, 0).HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := NewRunner(filepath.Join(t.TempDir(), "missing-checker"), 0).HealthCheck(context.Background())
	if !errors.Is(err, domain.ErrCheckerStart) {
		t.Errorf("err = %v, want ErrCheckerStart", err)
	}
}
