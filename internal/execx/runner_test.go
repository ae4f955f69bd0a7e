package execx

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

func TestRunSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix shell utilities")
	}

	r := &Runner{}
	res := r.Run(context.Background(), "echo", []string{"hello"}, "")

	if !res.Succeeded {
		t.Fatalf("expected success, got err=%v stderr=%q", res.Err, res.Stderr)
	}
	if res.Stdout != "hello" {
		t.Errorf("expected trimmed stdout %q, got %q", "hello", res.Stdout)
	}
	if res.Err != nil {
		t.Errorf("successful run should carry nil Err, got %v", res.Err)
	}
}

func TestRunTrimsTrailingWhitespace(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix shell utilities")
	}

	r := &Runner{}
	res := r.Run(context.Background(), "printf", []string{"a b \n\n"}, "")
	if res.Stdout != "a b" {
		t.Errorf("expected %q, got %q", "a b", res.Stdout)
	}
}

func TestRunNotFound(t *testing.T) {
	r := &Runner{}
	res := r.Run(context.Background(), "tagdeck-no-such-binary-xyz", nil, "")

	if res.Succeeded {
		t.Fatal("expected failure for missing executable")
	}
	if !errors.Is(res.Err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", res.Err)
	}
	if res.Stderr == "" {
		t.Error("expected a diagnostic for missing executable")
	}
}

func TestRunNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix shell utilities")
	}

	r := &Runner{}
	res := r.Run(context.Background(), "sh", []string{"-c", "echo oops >&2; exit 3"}, "")

	if res.Succeeded {
		t.Fatal("expected failure for non-zero exit")
	}
	if !errors.Is(res.Err, ErrExit) {
		t.Errorf("expected ErrExit, got %v", res.Err)
	}
	if res.Stderr != "oops" {
		t.Errorf("expected captured stderr %q, got %q", "oops", res.Stderr)
	}
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix shell utilities")
	}

	r := &Runner{Timeout: 50 * time.Millisecond}
	start := time.Now()
	res := r.Run(context.Background(), "sleep", []string{"5"}, "")

	if res.Succeeded {
		t.Fatal("expected timeout failure")
	}
	if !errors.Is(res.Err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", res.Err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}
