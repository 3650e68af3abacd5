// Package jobs tracks long-running conversion and download runs for the HTTP
// surface. A job is created when a run starts, fed from the run's progress
// channel, and polled by clients until it reaches a terminal status.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/sundazed/mymusic/internal/match"
	"github.com/sundazed/mymusic/internal/shared"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Job is a tracked run. All fields are guarded by mu; readers use Snapshot.
type Job struct {
	mu sync.Mutex

	id        string
	status    Status
	phase     string
	step      int
	total     int
	message   string
	err       string
	result    *match.Result
	startedAt time.Time
	updatedAt time.Time
}

// Snapshot is a point-in-time copy of a job, safe to serialize.
type Snapshot struct {
	ID        string        `json:"id"`
	Status    Status        `json:"status"`
	Phase     string        `json:"phase,omitempty"`
	Step      int           `json:"step"`
	Total     int           `json:"total"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Result    *match.Result `json:"result,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ID returns the job's identifier.
func (j *Job) ID() string {
	return j.id
}

// Snapshot copies the job state under lock.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	return Snapshot{
		ID:        j.id,
		Status:    j.status,
		Phase:     j.phase,
		Step:      j.step,
		Total:     j.total,
		Message:   j.message,
		Error:     j.err,
		Result:    j.result,
		StartedAt: j.startedAt,
		UpdatedAt: j.updatedAt,
	}
}

// Consume applies progress updates until the channel closes. Run it in its
// own goroutine alongside the producing run.
func (j *Job) Consume(progress <-chan match.ProgressUpdate) {
	for update := range progress {
		j.mu.Lock()
		j.phase = update.Phase.String()
		if update.Step > 0 {
			j.step = update.Step
		}
		if update.Total > 0 {
			j.total = update.Total
		}
		if update.Message != "" {
			j.message = update.Message
		}
		j.updatedAt = time.Now()
		j.mu.Unlock()
	}
}

// Complete marks the job finished with its result.
func (j *Job) Complete(result *match.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusComplete
	j.result = result
	j.updatedAt = time.Now()
}

// Fail marks the job failed.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusFailed
	if err != nil {
		j.err = err.Error()
	}
	j.updatedAt = time.Now()
}

// Registry holds jobs by ID for the lifetime of the server process.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new running job.
func (r *Registry) Create() *Job {
	now := time.Now()
	job := &Job{
		id:        shared.GenerateID(),
		status:    StatusRunning,
		startedAt: now,
		updatedAt: now,
	}

	r.mu.Lock()
	r.jobs[job.id] = job
	r.mu.Unlock()

	return job
}

// Get retrieves a job by ID.
func (r *Registry) Get(id string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return job, nil
}

// List returns snapshots of all jobs, unordered.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(r.jobs))
	for _, job := range r.jobs {
		snapshots = append(snapshots, job.Snapshot())
	}
	return snapshots
}
