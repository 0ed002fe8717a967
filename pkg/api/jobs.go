package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an asynchronous generation job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job tracks one asynchronous report generation from acceptance to its
// terminal state.
type Job struct {
	ID          string     `json:"id"`
	RecordID    string     `json:"recordId"`
	Status      JobStatus  `json:"status"`
	FileName    string     `json:"fileName,omitempty"`
	PageCount   int        `json:"pageCount,omitempty"`
	ArtifactSHA string     `json:"artifactSha,omitempty"`
	ErrorCode   string     `json:"errorCode,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`

	cancel context.CancelFunc
}

func (j *Job) terminal() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// JobManager holds jobs for the lifetime of the server. Lookups return
// copies so handlers never race with the worker goroutines.
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobManager creates an empty job registry.
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*Job)}
}

// Create registers a new queued job and returns its id along with a context
// the worker should honor for cancellation.
func (m *JobManager) Create(parent context.Context, recordID string) (string, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	job := &Job{
		ID:        uuid.NewString(),
		RecordID:  recordID,
		Status:    JobQueued,
		CreatedAt: time.Now().UTC(),
		cancel:    cancel,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.ID, ctx
}

// Get returns a snapshot of the job, or false if it does not exist.
func (m *JobManager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// MarkRunning transitions a queued job to running.
func (m *JobManager) MarkRunning(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok && job.Status == JobQueued {
		job.Status = JobRunning
	}
}

// MarkCompleted records a successful generation. It returns false when the
// job is unknown or already terminal, which happens when a cancellation won
// the race; the caller must then discard the artifact instead of announcing
// a completion.
func (m *JobManager) MarkCompleted(id, fileName string, pageCount int, artifactSHA string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.terminal() {
		return false
	}
	now := time.Now().UTC()
	job.Status = JobCompleted
	job.FileName = fileName
	job.PageCount = pageCount
	job.ArtifactSHA = artifactSHA
	job.FinishedAt = &now
	return true
}

// MarkFailed records a failed generation with its structured error code.
// Returns false when the job is unknown or already terminal.
func (m *JobManager) MarkFailed(id, code, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.terminal() {
		return false
	}
	now := time.Now().UTC()
	job.Status = JobFailed
	job.ErrorCode = code
	job.Error = message
	job.FinishedAt = &now
	return true
}

// Cancel stops a pending or running job. Returns false if the job does not
// exist or already reached a terminal state.
func (m *JobManager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.terminal() {
		return false
	}
	now := time.Now().UTC()
	job.Status = JobCancelled
	job.FinishedAt = &now
	if job.cancel != nil {
		job.cancel()
	}
	return true
}
