package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/process"
)

// DefaultSegmentSeconds is the segment length used by live mode.
const DefaultSegmentSeconds = 5

// ErrBusy is returned when the Recorder already has an active recording.
var ErrBusy = errors.Conflict("a recording is already in progress")

// Config selects the capture device.
type Config struct {
	Binary string `yaml:"binary" mapstructure:"binary"`
	// InputFormat is the ffmpeg input device format (pulse, alsa,
	// avfoundation, dshow). Defaults per platform.
	InputFormat string        `yaml:"input_format" mapstructure:"input_format"`
	Device      string        `yaml:"device" mapstructure:"device"`
	SampleRate  int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	Bitrate     string        `yaml:"bitrate" mapstructure:"bitrate"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = media.DefaultBinary
	}
	if c.InputFormat == "" {
		switch runtime.GOOS {
		case "darwin":
			c.InputFormat = "avfoundation"
		case "windows":
			c.InputFormat = "dshow"
		default:
			c.InputFormat = "pulse"
		}
	}
	if c.Device == "" {
		switch c.InputFormat {
		case "avfoundation":
			c.Device = ":0"
		case "dshow":
			c.Device = "audio=default"
		default:
			c.Device = "default"
		}
	}
	if c.SampleRate == 0 {
		c.SampleRate = media.DefaultSampleRate
	}
	if c.Bitrate == "" {
		c.Bitrate = media.DefaultBitrate
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 3 * time.Second
	}
}

// Process is a running capture.
type Process interface {
	Stop() (*process.Result, error)
	Done() <-chan struct{}
}

// StartFunc launches a capture command.
type StartFunc func(ctx context.Context, cmd process.Command) (Process, error)

func startProcess(ctx context.Context, cmd process.Command) (Process, error) {
	return process.Start(ctx, cmd)
}

// Recorder owns the capture device.
type Recorder struct {
	cfg   Config
	dir   string
	start StartFunc
	log   *logger.Logger
	now   func() time.Time

	mu     sync.Mutex
	active bool
}

// New creates a Recorder writing into dir. A nil start launches ffmpeg.
func New(cfg Config, dir string, start StartFunc, log *logger.Logger) *Recorder {
	cfg.ApplyDefaults()
	if start == nil {
		start = startProcess
	}
	if log == nil {
		log = logger.Get("recorder")
	}
	return &Recorder{cfg: cfg, dir: dir, start: start, log: log.WithComponent("recorder"), now: time.Now}
}

// Active reports whether a recording is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Recorder) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrBusy
	}
	r.active = true
	return nil
}

func (r *Recorder) release() {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
}

func (r *Recorder) inputArgs() []string {
	return []string{"-y", "-f", r.cfg.InputFormat, "-i", r.cfg.Device,
		"-ac", "1", "-ar", strconv.Itoa(r.cfg.SampleRate),
		"-c:a", "libmp3lame", "-b:a", r.cfg.Bitrate}
}

func (r *Recorder) launch(ctx context.Context, args []string) (Process, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, errors.Internal(fmt.Errorf("creating recording dir: %w", err))
	}
	proc, err := r.start(ctx, process.Command{
		Binary:      r.cfg.Binary,
		Args:        args,
		GracePeriod: r.cfg.GracePeriod,
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.SourceUnavailable(r.cfg.InputFormat+":"+r.cfg.Device, err)
	}
	return proc, nil
}

// Recording is one capture into a single file.
type Recording struct {
	rec     *Recorder
	proc    Process
	path    media.Handle
	started time.Time
	once    sync.Once
}

// Start begins capturing into <dir>/recording-<unixms>.mp3.
func (r *Recorder) Start(ctx context.Context) (*Recording, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	now := r.now()
	path := filepath.Join(r.dir, fmt.Sprintf("recording-%d.mp3", now.UnixMilli()))
	proc, err := r.launch(ctx, append(r.inputArgs(), path))
	if err != nil {
		r.release()
		return nil, err
	}
	r.log.Info("recording started", logger.Fields(logger.FieldPath, path))
	return &Recording{rec: r, proc: proc, path: media.Handle(path), started: now}, nil
}

// Path returns the file being written.
func (rc *Recording) Path() media.Handle { return rc.path }

// Stop ends the capture and returns the finished file. ffmpeg gets the
// grace period to flush the file before it is killed.
func (rc *Recording) Stop(ctx context.Context) (media.Handle, error) {
	var err error
	rc.once.Do(func() {
		defer rc.rec.release()
		done := make(chan error, 1)
		go func() {
			_, stopErr := rc.proc.Stop()
			done <- stopErr
		}()
		select {
		case err = <-done:
		case <-ctx.Done():
			err = errors.Cancelled("recording stop")
		}
	})
	if err != nil {
		return "", err
	}
	size, statErr := media.Stat(rc.path)
	if statErr != nil {
		return "", statErr
	}
	if size == 0 {
		return "", errors.SourceUnavailable(rc.path.String(), fmt.Errorf("recording is empty"))
	}
	rc.rec.log.Info("recording stopped", logger.Fields(
		logger.FieldPath, rc.path.String(),
		logger.FieldSize, size,
		logger.FieldDuration, time.Since(rc.started).Milliseconds(),
	))
	return rc.path, nil
}
