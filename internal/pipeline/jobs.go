package pipeline

import (
	"sync"
	"time"

	"github.com/okvee/bookpress/internal/paginate"
)

// JobStatus represents the state of a compile job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusCompiling JobStatus = "compiling"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusConflict  JobStatus = "run_in_flight"
)

// Job tracks the state of a single book compilation.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	BookID   string `json:"book_id"`
	Filename string `json:"filename"`

	Status JobStatus `json:"status"`
	Stage  string    `json:"stage"`

	// Percentage mirrors the latest progress event, 0..100.
	Percentage int `json:"percentage"`

	TotalPages int       `json:"total_pages"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData     []byte
	breakOnTitle bool
	metrics      paginate.Metrics
	hintEncoding string
	hintEastern  *bool
	errors       []string
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, stage string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Stage = stage
	j.UpdatedAt = time.Now()
}

// SetProgress records the latest progress event. Percentage never moves
// backwards.
func (j *Job) SetProgress(pct int, stage string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if pct > j.Percentage {
		j.Percentage = pct
	}
	j.Stage = stage
	j.UpdatedAt = time.Now()
}

// SetTotalPages records the page count of the compiled model.
func (j *Job) SetTotalPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.TotalPages = n
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetInput sets the raw file bytes and compile options.
func (j *Job) SetInput(data []byte, breakOnTitle bool, metrics paginate.Metrics, hintEncoding string, hintEastern *bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
	j.breakOnTitle = breakOnTitle
	j.metrics = metrics
	j.hintEncoding = hintEncoding
	j.hintEastern = hintEastern
}

// Request builds the compile request from the job's input.
func (j *Job) Request() Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Request{
		Data:         j.fileData,
		Filename:     j.Filename,
		BookID:       j.BookID,
		HintEncoding: j.hintEncoding,
		HintEastern:  j.hintEastern,
		BreakOnTitle: j.breakOnTitle,
		Metrics:      j.metrics,
	}
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	BookID     string    `json:"book_id"`
	Filename   string    `json:"filename"`
	Status     JobStatus `json:"status"`
	Stage      string    `json:"stage"`
	Percentage int       `json:"percentage"`
	TotalPages int       `json:"total_pages"`
	Errors     []string  `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:         j.ID,
		BookID:     j.BookID,
		Filename:   j.Filename,
		Status:     j.Status,
		Stage:      j.Stage,
		Percentage: j.Percentage,
		TotalPages: j.TotalPages,
		Errors:     errs,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
