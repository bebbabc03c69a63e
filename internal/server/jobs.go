package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/cutmark/internal/align"
	"github.com/MrWong99/cutmark/internal/analysis"
	"github.com/MrWong99/cutmark/internal/observe"
	"github.com/MrWong99/cutmark/pkg/words"
)

// DefaultQueueCapacity bounds how many submitted jobs may wait for a worker
// before submissions are rejected.
const DefaultQueueCapacity = 64

const (
	// progressInterval throttles progress broadcasts per job. The final
	// snapshot is always broadcast.
	progressInterval = 100 * time.Millisecond

	// subscriberBuffer is the per-subscriber channel capacity. A subscriber
	// that falls behind loses intermediate progress snapshots, never the
	// channel close.
	subscriberBuffer = 16
)

var (
	// ErrJobNotFound is returned for job ids the manager does not know.
	ErrJobNotFound = errors.New("server: job not found")

	// ErrQueueFull is returned by [Manager.Submit] when the job queue is at
	// capacity.
	ErrQueueFull = errors.New("server: job queue is full")

	// ErrManagerClosed is returned by [Manager.Submit] after [Manager.Close].
	ErrManagerClosed = errors.New("server: job manager stopped")
)

// JobState is the lifecycle state of an analysis job.
type JobState string

const (
	JobQueued   JobState = "queued"
	JobRunning  JobState = "running"
	JobDone     JobState = "done"
	JobCanceled JobState = "canceled"
)

// terminal reports whether the state is final.
func (s JobState) terminal() bool {
	return s == JobDone || s == JobCanceled
}

// Progress is a snapshot of how far a running job has advanced, counted in
// transcript tokens.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// JobStatus is the externally visible snapshot of a job.
type JobStatus struct {
	ID          string    `json:"id"`
	State       JobState  `json:"state"`
	Progress    Progress  `json:"progress"`
	SubmittedAt time.Time `json:"submitted_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`

	// Result carries the annotated word list once the job is done.
	Result *align.Result `json:"result,omitempty"`
}

// job is the manager-internal job record. Everything below the input fields
// is guarded by the manager mutex.
type job struct {
	id     string
	script string
	words  []*words.Word

	state       JobState
	progress    Progress
	submittedAt time.Time
	startedAt   time.Time
	finishedAt  time.Time
	result      *align.Result

	// subs receive progress snapshots and are closed when the job reaches a
	// terminal state.
	subs []chan Progress
}

// ManagerConfig holds the dependencies and tuning for a [Manager].
type ManagerConfig struct {
	// Analyzer returns the analyzer used for job runs. It is called once per
	// job, so configuration reloads apply to jobs picked up afterwards.
	Analyzer func() *analysis.Analyzer

	// Workers is the number of concurrent job runners.
	// Defaults to [runtime.GOMAXPROCS].
	Workers int

	// QueueCapacity bounds the number of jobs waiting for a worker.
	// Defaults to [DefaultQueueCapacity].
	QueueCapacity int

	// Logger defaults to [slog.Default].
	Logger *slog.Logger

	// Metrics defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// Manager runs alignment jobs asynchronously on a bounded worker pool. Jobs
// live in memory for the lifetime of the manager; nothing is persisted
// across restarts. All exported methods are safe for concurrent use.
type Manager struct {
	analyzer func() *analysis.Analyzer
	log      *slog.Logger
	metrics  *observe.Metrics

	queue  chan *job
	group  *errgroup.Group
	cancel context.CancelFunc

	mu     sync.Mutex
	jobs   map[string]*job
	closed bool

	stopOnce sync.Once
}

// NewManager creates a [Manager] and starts its worker pool.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("server: manager needs an analyzer provider")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		analyzer: cfg.Analyzer,
		log:      log,
		metrics:  metrics,
		queue:    make(chan *job, capacity),
		cancel:   cancel,
		jobs:     make(map[string]*job),
	}
	m.group, ctx = errgroup.WithContext(ctx)
	for range workers {
		m.group.Go(func() error {
			m.worker(ctx)
			return nil
		})
	}
	return m, nil
}

// Submit queues a new alignment job and returns its id.
func (m *Manager) Submit(script string, ws []*words.Word) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrManagerClosed
	}

	j := &job{
		id:          uuid.NewString(),
		script:      script,
		words:       ws,
		state:       JobQueued,
		submittedAt: time.Now().UTC(),
	}
	select {
	case m.queue <- j:
	default:
		return "", ErrQueueFull
	}
	m.jobs[j.id] = j

	m.log.Debug("job queued", "job_id", j.id, "words", len(ws))
	return j.id, nil
}

// Status returns a snapshot of the job.
func (m *Manager) Status(id string) (JobStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return JobStatus{}, fmt.Errorf("%w: %q", ErrJobNotFound, id)
	}
	return JobStatus{
		ID:          j.id,
		State:       j.state,
		Progress:    j.progress,
		SubmittedAt: j.submittedAt,
		StartedAt:   j.startedAt,
		FinishedAt:  j.finishedAt,
		Result:      j.result,
	}, nil
}

// Subscribe registers a progress listener on the job. The returned channel
// delivers progress snapshots and is closed once the job reaches a terminal
// state; for an already finished job it is closed right away. The cancel
// function detaches the listener.
func (m *Manager) Subscribe(id string) (<-chan Progress, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrJobNotFound, id)
	}

	ch := make(chan Progress, subscriberBuffer)
	if j.state.terminal() {
		close(ch)
		return ch, func() {}, nil
	}
	if j.progress.Total > 0 {
		ch <- j.progress
	}
	j.subs = append(j.subs, ch)

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		j.subs = slices.DeleteFunc(j.subs, func(c chan Progress) bool {
			return c == ch
		})
	}
	return ch, cancel, nil
}

// Ready reports whether the manager accepts jobs. It satisfies the health
// checker signature.
func (m *Manager) Ready(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("job manager stopped")
	}
	return nil
}

// Close stops the worker pool. Running jobs complete, still queued jobs move
// to [JobCanceled]. Close is idempotent and safe to call concurrently.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.cancel()
		m.mu.Unlock()

		_ = m.group.Wait()

		// No worker will pick these up anymore.
		m.mu.Lock()
		defer m.mu.Unlock()
		for {
			select {
			case j := <-m.queue:
				m.finishLocked(context.Background(), j, JobCanceled, nil)
			default:
				m.log.Info("job manager stopped")
				return
			}
		}
	})
	return nil
}

// worker runs queued jobs until the manager shuts down. A job dequeued
// during shutdown is canceled instead of run.
func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-m.queue:
			if ctx.Err() != nil {
				m.mu.Lock()
				m.finishLocked(ctx, j, JobCanceled, nil)
				m.mu.Unlock()
				return
			}
			m.run(ctx, j)
		}
	}
}

// run executes one job to completion. The alignment itself is synchronous,
// so a job that started always finishes; shutdown waits for it.
func (m *Manager) run(ctx context.Context, j *job) {
	m.mu.Lock()
	j.state = JobRunning
	j.startedAt = time.Now().UTC()
	m.mu.Unlock()

	m.metrics.ActiveJobs.Add(ctx, 1)
	defer m.metrics.ActiveJobs.Add(ctx, -1)

	var last time.Time
	progress := align.WithProgress(func(done, total int) {
		m.mu.Lock()
		j.progress = Progress{Done: done, Total: total}
		if done == total || time.Since(last) >= progressInterval {
			last = time.Now()
			broadcastLocked(j)
		}
		m.mu.Unlock()
	})

	res := m.analyzer().Compare(ctx, j.script, j.words, progress)

	m.mu.Lock()
	m.finishLocked(ctx, j, JobDone, res)
	m.mu.Unlock()
}

// finishLocked moves j into a terminal state and releases its subscribers.
func (m *Manager) finishLocked(ctx context.Context, j *job, state JobState, res *align.Result) {
	j.state = state
	j.finishedAt = time.Now().UTC()
	j.result = res
	for _, ch := range j.subs {
		close(ch)
	}
	j.subs = nil
	m.metrics.RecordJob(ctx, string(state))
	m.log.Info("job finished",
		"job_id", j.id,
		"state", state,
		"duration", j.finishedAt.Sub(j.submittedAt),
	)
}

// broadcastLocked sends the current progress to every subscriber without
// blocking. A full subscriber buffer drops the snapshot.
func broadcastLocked(j *job) {
	for _, ch := range j.subs {
		select {
		case ch <- j.progress:
		default:
		}
	}
}
