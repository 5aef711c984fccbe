package process_test

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/audioscribe/process"
)

func TestRun_Stdout(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"-n", "mono 16k"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 || string(result.Stdout) != "mono 16k" {
		t.Fatalf("unexpected result %d %q", result.ExitCode, result.Stdout)
	}
}

func TestRun_Stdin(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "cat",
		Stdin:  strings.NewReader("frames"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Stdout) != "frames" {
		t.Fatalf("expected stdin echoed, got %q", result.Stdout)
	}
}

func TestRun_ExitCodeAndStderrTail(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "printf 'line1\\nline2\\nInvalid data found when processing input\\n' >&2; exit 1"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", result.ExitCode)
	}
	if got := result.StderrTail(2); got != "line2\nInvalid data found when processing input" {
		t.Errorf("unexpected tail %q", got)
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{Binary: "definitely-not-ffmpeg-xyz"})
	if !stderrors.Is(err, process.ErrBinaryNotFound) {
		t.Fatalf("expected ErrBinaryNotFound, got %v", err)
	}
	if _, err := process.LookPath("definitely-not-ffmpeg-xyz"); !stderrors.Is(err, process.ErrBinaryNotFound) {
		t.Fatalf("expected ErrBinaryNotFound from LookPath, got %v", err)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error from context cancellation")
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline in chain, got %v", err)
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRun_EmptyBinary(t *testing.T) {
	if _, err := process.Run(context.Background(), process.Command{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRun_Env(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo $AUDIOSCRIBE_TEST_VAR"},
		Env:    []string{"AUDIOSCRIBE_TEST_VAR=hello123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := strings.TrimSpace(string(result.Stdout)); out != "hello123" {
		t.Fatalf("expected 'hello123', got %q", out)
	}
}

func TestStart_StopIsNotAnError(t *testing.T) {
	h, err := process.Start(context.Background(), process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Pid() <= 0 {
		t.Errorf("expected pid, got %d", h.Pid())
	}
	result, err := h.Stop()
	if err != nil {
		t.Fatalf("stop should not report an error, got %v", err)
	}
	if result.Duration > 5*time.Second {
		t.Errorf("stop took too long: %v", result.Duration)
	}
	select {
	case <-h.Done():
	default:
		t.Error("expected Done to be closed after Stop")
	}
	if _, err := h.Stop(); err != nil {
		t.Errorf("second stop: %v", err)
	}
}

func TestStart_ExitsOnItsOwn(t *testing.T) {
	h, err := process.Start(context.Background(), process.Command{Binary: "sh", Args: []string{"-c", "echo done; exit 3"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := h.Wait()
	if err == nil {
		t.Fatal("expected exit error")
	}
	if result.ExitCode != 3 || strings.TrimSpace(string(result.Stdout)) != "done" {
		t.Errorf("unexpected result %d %q", result.ExitCode, result.Stdout)
	}
}

func TestStart_BinaryNotFound(t *testing.T) {
	if _, err := process.Start(context.Background(), process.Command{Binary: "definitely-not-ffmpeg-xyz"}); !stderrors.Is(err, process.ErrBinaryNotFound) {
		t.Fatalf("expected ErrBinaryNotFound, got %v", err)
	}
}

func TestAdapter(t *testing.T) {
	a := process.NewAdapter(process.Config{Name: "ffmpeg", Binary: "sh", Timeout: 50 * time.Millisecond})
	if a.Name() != "ffmpeg" || !a.IsAvailable(context.Background()) {
		t.Fatalf("unexpected adapter state")
	}
	if _, err := a.Execute(context.Background(), process.Command{Binary: "sleep", Args: []string{"5"}}); err == nil {
		t.Fatal("expected adapter timeout to kill the process")
	}
	missing := process.NewAdapter(process.Config{Name: "ffmpeg", Binary: "definitely-not-ffmpeg-xyz"})
	if missing.IsAvailable(context.Background()) {
		t.Error("expected unavailable when binary is missing")
	}
}
