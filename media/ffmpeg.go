package media

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/process"
	"github.com/kbukum/audioscribe/provider"
	"github.com/kbukum/audioscribe/util"
)

// FFmpeg settings used when FFmpegConfig leaves them unset. The sample
// rate is what the speech-to-text endpoint expects.
const (
	DefaultBinary     = "ffmpeg"
	DefaultBitrate    = "32k"
	DefaultSampleRate = 16000

	stderrTailLines = 5
)

// FFmpegConfig configures the ffmpeg invocation.
type FFmpegConfig struct {
	Binary      string        `yaml:"binary" mapstructure:"binary"`
	Bitrate     string        `yaml:"bitrate" mapstructure:"bitrate"`
	SampleRate  int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *FFmpegConfig) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.Bitrate == "" {
		c.Bitrate = DefaultBitrate
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = 3 * time.Second
	}
}

// Runner executes a subprocess. process.Adapter is the production Runner.
type Runner = provider.RequestResponse[process.Command, *process.Result]

// FFmpegNormalizer converts media by shelling out to ffmpeg.
type FFmpegNormalizer struct {
	cfg      FFmpegConfig
	cacheDir string
	runner   Runner
	log      *logger.Logger
}

// NewFFmpegNormalizer creates a normalizer writing into cacheDir. A nil
// runner uses a process.Adapter for cfg.Binary.
func NewFFmpegNormalizer(cfg FFmpegConfig, cacheDir string, runner Runner, log *logger.Logger) *FFmpegNormalizer {
	cfg.ApplyDefaults()
	if runner == nil {
		runner = process.NewAdapter(process.Config{
			Name:        "ffmpeg",
			Binary:      cfg.Binary,
			GracePeriod: cfg.GracePeriod,
			Timeout:     cfg.Timeout,
		})
	}
	if log == nil {
		log = logger.Get("media")
	}
	return &FFmpegNormalizer{cfg: cfg, cacheDir: cacheDir, runner: runner, log: log.WithComponent("media")}
}

// OutputPath returns where the normalized form of input is written.
func (n *FFmpegNormalizer) OutputPath(input Handle) Handle {
	return Handle(filepath.Join(n.cacheDir, "converted-"+util.FileBase(string(input))+".mp3"))
}

// Args returns the ffmpeg arguments converting in to out.
func (n *FFmpegNormalizer) Args(in, out Handle) []string {
	return []string{
		"-y",
		"-i", string(in),
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(n.cfg.SampleRate),
		"-c:a", "libmp3lame",
		"-b:a", n.cfg.Bitrate,
		string(out),
	}
}

// Normalize converts input and returns the derived file and its size.
func (n *FFmpegNormalizer) Normalize(ctx context.Context, input Handle) (Normalized, error) {
	if _, err := Stat(input); err != nil {
		return Normalized{}, err
	}
	if err := os.MkdirAll(n.cacheDir, 0o755); err != nil {
		return Normalized{}, errors.Internal(err)
	}

	out := n.OutputPath(input)
	log := n.log.WithContext(ctx)
	log.Debug("converting media", logger.Fields(logger.FieldPath, string(input)))

	res, err := n.runner.Execute(ctx, process.Command{
		Binary: n.cfg.Binary,
		Args:   n.Args(input, out),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Normalized{}, errors.Cancelled("Media conversion").WithCause(ctxErr)
		}
		if stderrors.Is(err, process.ErrBinaryNotFound) {
			return Normalized{}, errors.Internal(err).WithDetail("binary", n.cfg.Binary)
		}
		tail := res.StderrTail(stderrTailLines)
		log.Warn("ffmpeg rejected input", logger.Fields(logger.FieldPath, string(input), "stderr", tail))
		return Normalized{}, errors.UnsupportedMedia("ffmpeg could not convert the file").
			WithCause(err).
			WithDetail("stderr", tail)
	}

	size, err := Stat(out)
	if err != nil {
		return Normalized{}, errors.UnsupportedMedia("ffmpeg produced no output").WithCause(err)
	}
	log.Info("media converted", logger.Fields(logger.FieldPath, string(out), logger.FieldSize, size))
	return Normalized{Handle: out, SizeBytes: size}, nil
}

// Available reports whether the ffmpeg binary can be found.
func (n *FFmpegNormalizer) Available(ctx context.Context) bool {
	return n.runner.IsAvailable(ctx)
}

var _ Normalizer = (*FFmpegNormalizer)(nil)
