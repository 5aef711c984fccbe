package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Handle is a running subprocess started with Start.
type Handle struct {
	cmd     Command
	c       *exec.Cmd
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	start   time.Time
	end     time.Time
	done    chan struct{}
	waitErr error

	stopOnce sync.Once
	stopped  atomic.Bool
}

// Start launches cmd without waiting for it. The process keeps running until
// it exits on its own, Stop is called or ctx is cancelled.
func Start(ctx context.Context, cmd Command) (*Handle, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	h := &Handle{cmd: cmd, done: make(chan struct{})}
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}
	c.Stdout = &h.stdout
	c.Stderr = &h.stderr
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.gracePeriod()
	h.c = c

	h.start = time.Now()
	if err := c.Start(); err != nil {
		if stderrors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBinaryNotFound, cmd.Binary)
		}
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}

	go func() {
		h.waitErr = c.Wait()
		h.end = time.Now()
		close(h.done)
	}()
	return h, nil
}

// Pid returns the process id.
func (h *Handle) Pid() int { return h.c.Process.Pid }

// Done is closed once the process has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Stop sends SIGINT to the process group so the child can finalize its
// output, then SIGKILL if it has not exited within the grace period.
// It blocks until the process has exited.
func (h *Handle) Stop() (*Result, error) {
	h.stopOnce.Do(func() {
		h.stopped.Store(true)
		select {
		case <-h.done:
			return
		default:
		}
		_ = syscall.Kill(-h.c.Process.Pid, syscall.SIGINT)
		select {
		case <-h.done:
		case <-time.After(h.cmd.gracePeriod()):
			_ = syscall.Kill(-h.c.Process.Pid, syscall.SIGKILL)
		}
	})
	return h.Wait()
}

// Wait blocks until the process exits and returns its result. Whatever exit
// status follows a Stop is not an error.
func (h *Handle) Wait() (*Result, error) {
	<-h.done
	result := &Result{
		Stdout:   h.stdout.Bytes(),
		Stderr:   h.stderr.Bytes(),
		ExitCode: h.c.ProcessState.ExitCode(),
		Duration: h.end.Sub(h.start),
	}
	if h.waitErr == nil || h.stopped.Load() {
		return result, nil
	}
	return result, fmt.Errorf("process: exit code %d: %w", result.ExitCode, h.waitErr)
}
