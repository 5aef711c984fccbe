package api

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/ingest"
)

// maxJobs bounds the number of finished jobs kept for GET.
const maxJobs = 100

// Job is one transcription request.
type Job struct {
	ID      string
	Source  string
	Created time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	state  ingest.State
	result *ingest.Transcript
	err    error
}

func newJob(id, source string, cancel context.CancelFunc) *Job {
	return &Job{
		ID:      id,
		Source:  source,
		Created: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   ingest.State{Phase: ingest.PhaseIdle, Status: "Queued"},
	}
}

func (j *Job) observe(st ingest.State) {
	j.mu.Lock()
	j.state = st
	j.mu.Unlock()
}

func (j *Job) finish(t *ingest.Transcript, err error) {
	j.mu.Lock()
	j.result, j.err = t, err
	if err != nil && !j.state.Phase.Terminal() {
		j.state = ingest.State{
			Phase:  ingest.PhaseFailed,
			Status: "Error processing audio: " + errors.From(err).Message,
			Err:    err,
		}
	}
	j.mu.Unlock()
	close(j.done)
}

// Running reports whether the job has not finished yet.
func (j *Job) Running() bool {
	select {
	case <-j.done:
		return false
	default:
		return true
	}
}

// State returns the latest pipeline state of the job.
func (j *Job) State() ingest.State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// JobView is the JSON form of a Job.
type JobView struct {
	ID           string             `json:"id"`
	Source       string             `json:"source"`
	Created      time.Time          `json:"created"`
	Phase        ingest.Phase       `json:"phase"`
	Progress     float64            `json:"progress"`
	CurrentChunk *int               `json:"current_chunk,omitempty"`
	Chunks       int                `json:"chunks,omitempty"`
	Status       string             `json:"status"`
	Error        *errors.ErrorBody  `json:"error,omitempty"`
	Transcript   *ingest.Transcript `json:"transcript,omitempty"`
	Labeled      string             `json:"labeled,omitempty"`
}

// View snapshots the job.
func (j *Job) View() JobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	v := JobView{
		ID:           j.ID,
		Source:       j.Source,
		Created:      j.Created,
		Phase:        j.state.Phase,
		Progress:     j.state.Progress,
		CurrentChunk: j.state.CurrentChunk,
		Chunks:       j.state.Chunks,
		Status:       j.state.Status,
		Transcript:   j.result,
	}
	if err := j.state.Err; err != nil {
		body := errors.From(err).ToResponse().Error
		v.Error = &body
	}
	if j.result != nil {
		v.Labeled = j.result.Labeled()
	}
	return v
}

// jobStore keeps the jobs and tracks the active one.
type jobStore struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	order  []string
	active *Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

// begin registers j as the active job unless another job is running.
func (s *jobStore) begin(j *Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.Running() {
		return false
	}
	s.active = j
	s.jobs[j.ID] = j
	s.order = append(s.order, j.ID)
	for len(s.order) > maxJobs {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}
	return true
}

func (s *jobStore) get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *jobStore) current() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
