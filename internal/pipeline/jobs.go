package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/lessonlint/lessonlint/internal/lint"
	"github.com/lessonlint/lessonlint/internal/report"
)

// JobStatus represents the state of a lint job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusLinting   JobStatus = "linting"
	StatusLinkCheck JobStatus = "linkcheck"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// File is one uploaded lesson source within a job.
type File struct {
	Name string
	Data []byte
}

// Job tracks the state of a single lint run.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	files  []File
	result *report.Report
	errors []string
}

// Progress tracks lint progress.
type Progress struct {
	TotalFiles     int        `json:"total_files"`
	FilesProcessed int        `json:"files_processed"`
	Findings       lint.Count `json:"findings"`
	LinksChecked   int        `json:"links_checked"`
	LinksBroken    int        `json:"links_broken"`
	Errors         []string   `json:"errors"`
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

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records a processing error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrFilesProcessed atomically increments processed files.
func (j *Job) IncrFilesProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FilesProcessed++
	j.UpdatedAt = time.Now()
}

// AddFindings folds a file's finding counts into progress.
func (j *Job) AddFindings(c lint.Count) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Findings.Add(c)
	j.UpdatedAt = time.Now()
}

// AddLinks records checked/broken link counts.
func (j *Job) AddLinks(checked, broken int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.LinksChecked += checked
	j.Progress.LinksBroken += broken
	j.UpdatedAt = time.Now()
}

// SetTotalFiles records total file count.
func (j *Job) SetTotalFiles(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalFiles = n
	j.UpdatedAt = time.Now()
}

// SetFiles sets the uploaded lesson files for processing.
func (j *Job) SetFiles(files []File) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.files = files
}

// Files returns the uploaded lesson files.
func (j *Job) Files() []File {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.files
}

// SetReport attaches the finished report.
func (j *Job) SetReport(r *report.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	j.UpdatedAt = time.Now()
}

// Report returns the finished report, or nil while the job is running.
func (j *Job) Report() *report.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			TotalFiles:     j.Progress.TotalFiles,
			FilesProcessed: j.Progress.FilesProcessed,
			Findings:       j.Progress.Findings,
			LinksChecked:   j.Progress.LinksChecked,
			LinksBroken:    j.Progress.LinksBroken,
			Errors:         errs,
		},
	}
}

// NewJobID derives a job id from the upload names and submission time.
func NewJobID(seed string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", seed, time.Now().UnixNano())))
	return fmt.Sprintf("%x", h[:])[:20]
}
