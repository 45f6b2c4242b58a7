package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ARYAN-095/GuardianWeb/internal/api/middleware"
	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// Job states
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobError   = "error"
)

const defaultMaxJobs = 1000

// Job tracks one background scan
type Job struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	URL        string     `json:"url"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ResultID   string     `json:"result_id,omitempty"`
	RequestID  string     `json:"request_id,omitempty"`
	RiskScore  *int       `json:"risk_score,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// JobRequest starts a background scan
type JobRequest struct {
	URL string `json:"url"`
}

// ScanRunner performs one scan
type ScanRunner func(ctx context.Context, url string) (*scan.ScanRecord, error)

// JobManager runs scans in the background and broadcasts job updates to
// subscribers
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers map[chan Job]struct{}
	maxJobs     int
	closed      bool

	run    ScanRunner
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobManager creates a manager that executes jobs with run
func NewJobManager(run ScanRunner, logger *zap.Logger) *JobManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &JobManager{
		jobs:        make(map[string]*Job),
		subscribers: make(map[chan Job]struct{}),
		maxJobs:     defaultMaxJobs,
		run:         run,
		logger:      logger.Named("jobs"),
		ctx:         ctx,
		cancel:      cancel,
	}
	m.wg.Add(1)
	go m.cleanupLoop()
	return m
}

// StartJob queues a scan of req.URL and returns immediately. The request ID
// in ctx, if any, is kept on the job so its log lines can be tied back to
// the HTTP request that queued it.
func (m *JobManager) StartJob(ctx context.Context, req JobRequest) (*Job, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, errors.New("url is required")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errors.New("job manager is shut down")
	}
	job := m.createJobLocked(url, middleware.GetRequestID(ctx))
	// registered under mu so Close cannot start waiting before the Add
	m.wg.Add(1)
	m.mu.Unlock()

	go m.execute(job.ID, url, job.RequestID)
	return job, nil
}

// createJobLocked must be called with m.mu held
func (m *JobManager) createJobLocked(url, requestID string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Type:      "scan",
		URL:       url,
		Status:    JobPending,
		CreatedAt: time.Now().UTC(),
		RequestID: requestID,
	}
	m.jobs[job.ID] = job
	m.broadcast(*job)
	copied := *job
	return &copied
}

func (m *JobManager) execute(id, url, requestID string) {
	defer m.wg.Done()

	m.UpdateJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.Status = JobRunning
		j.StartedAt = &now
	})

	ctx := m.ctx
	if requestID != "" {
		ctx = middleware.WithRequestID(ctx, requestID)
	}
	record, err := m.run(ctx, url)

	m.UpdateJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.FinishedAt = &now
		if err != nil {
			j.Status = JobError
			j.Error = err.Error()
			return
		}
		j.Status = JobDone
		j.ResultID = record.ScanID()
		if score, ok := record.RiskScore(); ok {
			j.RiskScore = &score
		}
	})
	if err != nil {
		m.logger.Warn("scan job failed",
			zap.String("job_id", id), zap.String("request_id", requestID), zap.String("url", url), zap.Error(err))
	}
}

// UpdateJob applies update to a job and broadcasts the result
func (m *JobManager) UpdateJob(id string, update func(*Job)) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	update(job)
	m.broadcast(*job)
	copied := *job
	return &copied
}

// GetJob returns a copy of a job
func (m *JobManager) GetJob(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if job, ok := m.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, errors.New("job not found")
}

// ListJobs returns up to limit jobs, newest first
func (m *JobManager) ListJobs(_ context.Context, limit int) ([]Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Subscribe returns a channel of job updates and a function to unsubscribe
func (m *JobManager) Subscribe() (chan Job, func()) {
	ch := make(chan Job, 10)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
}

// broadcast must be called with m.mu held. Slow subscribers miss updates.
func (m *JobManager) broadcast(job Job) {
	for ch := range m.subscribers {
		select {
		case ch <- job:
		default:
			m.logger.Debug("dropped job update for slow subscriber", zap.String("job_id", job.ID))
		}
	}
}

// SetMaxJobs configures how many jobs are kept in memory
func (m *JobManager) SetMaxJobs(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.maxJobs = n
	}
}

// Close rejects new jobs, cancels running scans and waits for them to finish
func (m *JobManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}

func (m *JobManager) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.prune()
		}
	}
}

// prune drops the oldest finished jobs beyond maxJobs
func (m *JobManager) prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) <= m.maxJobs {
		return
	}

	var finished []*Job
	for _, job := range m.jobs {
		if job.Status == JobDone || job.Status == JobError {
			finished = append(finished, job)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finishedAt(finished[i]).Before(finishedAt(finished[j]))
	})

	toRemove := min(len(m.jobs)-m.maxJobs, len(finished))
	for _, job := range finished[:toRemove] {
		delete(m.jobs, job.ID)
	}
}

func finishedAt(j *Job) time.Time {
	if j.FinishedAt != nil {
		return *j.FinishedAt
	}
	return j.CreatedAt
}
