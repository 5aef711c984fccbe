package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/process"
)

type fakeProc struct {
	done chan struct{}
	once sync.Once
	args []string
	// onStop runs before the process reports exit.
	onStop func()
}

func (p *fakeProc) exit() { p.once.Do(func() { close(p.done) }) }

func (p *fakeProc) Stop() (*process.Result, error) {
	if p.onStop != nil {
		p.onStop()
	}
	p.exit()
	return &process.Result{}, nil
}

func (p *fakeProc) Done() <-chan struct{} { return p.done }

func newRecorder(t *testing.T, procs *[]*fakeProc, onStop func(args []string)) *Recorder {
	t.Helper()
	start := func(_ context.Context, cmd process.Command) (Process, error) {
		p := &fakeProc{done: make(chan struct{}), args: cmd.Args}
		if onStop != nil {
			p.onStop = func() { onStop(cmd.Args) }
		}
		*procs = append(*procs, p)
		return p, nil
	}
	r := New(Config{InputFormat: "lavfi", Device: "sine"}, t.TempDir(), start, logger.Nop())
	r.now = func() time.Time { return time.UnixMilli(1760000000000) }
	return r
}

func TestStartStop(t *testing.T) {
	var procs []*fakeProc
	r := newRecorder(t, &procs, func(args []string) {
		_ = os.WriteFile(args[len(args)-1], []byte("\xff\xfbaudio"), 0o644)
	})

	rec, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if filepath.Base(rec.Path().String()) != "recording-1760000000000.mp3" {
		t.Errorf("unexpected path %s", rec.Path())
	}
	args := procs[0].args
	for _, want := range []string{"lavfi", "sine", "16000", "libmp3lame", "32k"} {
		if !slices.Contains(args, want) {
			t.Errorf("missing %q in %v", want, args)
		}
	}
	if _, err := r.Start(context.Background()); !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected busy, got %v", err)
	}

	h, err := rec.Stop(context.Background())
	if err != nil || h != rec.Path() {
		t.Fatalf("Stop = %s, %v", h, err)
	}
	if r.Active() {
		t.Error("recorder should be released")
	}
}

func TestStop_EmptyRecording(t *testing.T) {
	var procs []*fakeProc
	r := newRecorder(t, &procs, nil)
	rec, err := r.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rec.Stop(context.Background()); !errors.HasCode(err, errors.ErrCodeSourceUnavailable) {
		t.Errorf("expected SOURCE_UNAVAILABLE, got %v", err)
	}
	if r.Active() {
		t.Error("recorder should be released after a failed stop")
	}
}

func TestSegmented(t *testing.T) {
	var procs []*fakeProc
	r := newRecorder(t, &procs, nil)
	segs, err := r.Segmented(context.Background(), 5)
	if err != nil {
		t.Fatalf("Segmented: %v", err)
	}
	segs.poll = time.Millisecond
	args := procs[0].args
	if !slices.Contains(args, "segment") || args[len(args)-1] != filepath.Join(segs.Dir(), "segment-%05d.mp3") {
		t.Errorf("unexpected args %v", args)
	}

	write := func(i int) {
		p := filepath.Join(segs.Dir(), fmt.Sprintf("segment-%05d.mp3", i))
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(0)
	write(1)

	ctx := context.Background()
	h, ok, err := segs.Next(ctx)
	if err != nil || !ok || filepath.Base(h.String()) != "segment-00000.mp3" {
		t.Fatalf("Next = %s, %v, %v", h, ok, err)
	}

	// segment 1 is still being written until the capture ends
	procs[0].exit()
	h, ok, err = segs.Next(ctx)
	if err != nil || !ok || filepath.Base(h.String()) != "segment-00001.mp3" {
		t.Fatalf("Next = %s, %v, %v", h, ok, err)
	}
	if _, ok, err := segs.Next(ctx); ok || err != nil {
		t.Errorf("expected end of stream, got %v, %v", ok, err)
	}
	if err := segs.Close(); err != nil {
		t.Fatal(err)
	}
	if r.Active() {
		t.Error("recorder should be released")
	}
}

func TestSegments_NextHonoursContext(t *testing.T) {
	var procs []*fakeProc
	r := newRecorder(t, &procs, nil)
	segs, err := r.Segmented(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer segs.Close()
	segs.poll = time.Millisecond
	if !slices.Contains(procs[0].args, "5") {
		t.Errorf("expected default segment length, got %v", procs[0].args)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, _, err := segs.Next(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{InputFormat: "avfoundation"}
	c.ApplyDefaults()
	if c.Device != ":0" || c.Binary != "ffmpeg" || c.GracePeriod != 3*time.Second {
		t.Errorf("unexpected defaults %+v", c)
	}
}
