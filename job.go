package labelmerge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus is the lifecycle state of an asynchronous batch job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Progress checkpoints reported while a batch job runs. Rendering
// advances from ProgressRender to ProgressPersist proportionally to the
// number of labels produced.
const (
	ProgressIngest  = 10
	ProgressPrepare = 20
	ProgressRender  = 30
	ProgressPersist = 100
)

// Retry policy for transient failures.
const (
	// MaxRetries bounds attempts after the first failure.
	MaxRetries = 2
	// retryBackoffBase doubles per attempt.
	retryBackoffBase = 2 * time.Second
)

// Default wall-clock bounds for a batch job.
const (
	DefaultSoftTimeout = 3 * time.Minute
	DefaultHardTimeout = 5 * time.Minute
)

// JobSnapshot is a caller-pollable view of a job.
type JobSnapshot struct {
	ID        string
	Status    JobStatus
	Progress  int // 0..100
	Error     string
	ResultKey string // repository key once persisted
	Retries   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job runs one label batch asynchronously with discrete progress
// checkpoints, bounded timeouts and bounded retries with backoff.
type Job struct {
	id   string
	soft time.Duration
	hard time.Duration
	log  *zap.SugaredLogger

	mu   sync.Mutex
	snap JobSnapshot

	done chan struct{}
}

// newJob prepares a queued job. Run starts it.
func newJob(id string, soft, hard time.Duration, log *zap.SugaredLogger) *Job {
	if soft <= 0 {
		soft = DefaultSoftTimeout
	}
	if hard <= 0 {
		hard = DefaultHardTimeout
	}
	now := time.Now()
	return &Job{
		id:   id,
		soft: soft,
		hard: hard,
		log:  log,
		snap: JobSnapshot{ID: id, Status: JobQueued, CreatedAt: now, UpdatedAt: now},
		done: make(chan struct{}),
	}
}

// Snapshot returns the current pollable state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap
}

// Done closes when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// setProgress advances the checkpoint; progress never moves backwards.
func (j *Job) setProgress(p int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if p > j.snap.Progress {
		j.snap.Progress = p
		j.snap.UpdatedAt = time.Now()
	}
}

func (j *Job) setStatus(s JobStatus, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snap.Status = s
	j.snap.Error = errMsg
	j.snap.UpdatedAt = time.Now()
}

// run executes fn with the job's timeout and retry policy. The soft
// timeout marks the job failed with a specific timeout reason, whether
// the attempt itself erred or merely finished too late; the hard timeout
// cancels the context outright. Any other error is retried with
// exponential backoff up to MaxRetries, then recorded as terminal with
// the captured message.
func (j *Job) run(ctx context.Context, fn func(ctx context.Context, j *Job) (string, error)) {
	defer close(j.done)

	ctx, cancel := context.WithTimeout(ctx, j.hard)
	defer cancel()

	start := time.Now()
	j.setStatus(JobRunning, "")

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBackoffBase << (attempt - 1)
			j.log.Infow("retrying job",
				"job_id", j.id,
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				j.setStatus(JobFailed, ctx.Err().Error())
				return
			}
		}

		key, err := fn(ctx, j)
		elapsed := time.Since(start)
		if err == nil {
			if elapsed > j.soft {
				j.setStatus(JobFailed, fmt.Errorf("%w after %s", ErrJobTimeout, elapsed.Round(time.Second)).Error())
				return
			}
			j.mu.Lock()
			j.snap.ResultKey = key
			j.mu.Unlock()
			j.setProgress(ProgressPersist)
			j.setStatus(JobCompleted, "")
			return
		}
		lastErr = err

		if elapsed > j.soft || ctx.Err() != nil {
			j.setStatus(JobFailed, fmt.Errorf("%w after %s: %v", ErrJobTimeout, elapsed.Round(time.Second), err).Error())
			return
		}

		j.mu.Lock()
		j.snap.Retries = attempt + 1
		j.mu.Unlock()
		j.log.Warnw("job attempt failed",
			"job_id", j.id,
			"attempt", attempt,
			"error", err,
		)
	}

	j.setStatus(JobFailed, lastErr.Error())
}
