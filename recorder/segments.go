package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/audioscribe/media"
)

// DefaultPollInterval is how often Segments checks for a finished segment.
const DefaultPollInterval = 250 * time.Millisecond

// Segments yields the files of a segmented capture in order. A segment is
// handed out once the next one has been started or the capture has ended.
type Segments struct {
	rec     *Recorder
	proc    Process
	dir     string
	next    int
	poll    time.Duration
	closeMu sync.Once
}

// Segmented starts a capture that rolls over to a new file every seconds.
func (r *Recorder) Segmented(ctx context.Context, seconds int) (*Segments, error) {
	if seconds <= 0 {
		seconds = DefaultSegmentSeconds
	}
	if err := r.acquire(); err != nil {
		return nil, err
	}
	dir := filepath.Join(r.dir, fmt.Sprintf("live-%d", r.now().UnixMilli()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.release()
		return nil, err
	}
	args := append(r.inputArgs(),
		"-f", "segment",
		"-segment_time", strconv.Itoa(seconds),
		"-reset_timestamps", "1",
		filepath.Join(dir, "segment-%05d.mp3"),
	)
	proc, err := r.launch(ctx, args)
	if err != nil {
		r.release()
		return nil, err
	}
	return &Segments{rec: r, proc: proc, dir: dir, poll: DefaultPollInterval}, nil
}

// Dir returns the directory receiving the segments.
func (s *Segments) Dir() string { return s.dir }

func (s *Segments) segment(i int) string {
	return filepath.Join(s.dir, fmt.Sprintf("segment-%05d.mp3", i))
}

// Next blocks until the next segment is complete. It returns false once the
// capture has ended and every segment was delivered.
func (s *Segments) Next(ctx context.Context) (media.Handle, bool, error) {
	cur, following := s.segment(s.next), s.segment(s.next+1)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		if exists(following) {
			s.next++
			return media.Handle(cur), true, nil
		}
		select {
		case <-s.proc.Done():
			if exists(following) {
				continue
			}
			if size, err := media.Stat(media.Handle(cur)); err == nil && size > 0 {
				s.next++
				return media.Handle(cur), true, nil
			}
			return "", false, nil
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the capture and frees the Recorder.
func (s *Segments) Close() error {
	var err error
	s.closeMu.Do(func() {
		_, err = s.proc.Stop()
		s.rec.release()
	})
	return err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
