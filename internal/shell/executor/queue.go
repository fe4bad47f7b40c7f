package executor

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"export-service/internal/core/ports"
)

// ErrQueueStopped is returned by Enqueue once shutdown has begun and no
// worker would ever pick the job up.
var ErrQueueStopped = errors.New("job queue is stopped")

type entryState int

const (
	statePending entryState = iota
	stateRunning
	stateDone
)

type jobEntry struct {
	id     string
	job    ports.QueuedJob
	state  entryState
	jobCtx context.Context
	cancel context.CancelFunc
}

// InMemoryJobQueue is the in-process job runner: a FIFO of pending entries
// drained by a fixed worker pool. Cancellation is cooperative; a running
// job's context is cancelled and the job is expected to stop at its next
// check. Exactly one of Run or Discarded is invoked per accepted job.
type InMemoryJobQueue struct {
	mu      sync.Mutex
	ctx     context.Context
	stopped bool
	pending []*jobEntry
	entries map[string]*jobEntry
	wake    chan struct{}
	wg      sync.WaitGroup
}

var _ ports.JobQueue = (*InMemoryJobQueue)(nil)

func NewInMemoryJobQueue() *InMemoryJobQueue {
	return &InMemoryJobQueue{
		entries: make(map[string]*jobEntry),
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the worker pool. Workers run until ctx is cancelled; use
// Wait to block until they have drained their current jobs.
func (q *InMemoryJobQueue) Start(ctx context.Context, workers int) {
	log.Printf("Starting job queue with %d workers", workers)
	q.mu.Lock()
	q.ctx = ctx
	q.mu.Unlock()
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Wait blocks until all workers have exited, then settles any entry they
// never picked up through its Discarded hook so every accepted job still
// reaches a terminal outcome.
func (q *InMemoryJobQueue) Wait() {
	q.wg.Wait()

	q.mu.Lock()
	q.stopped = true
	leftovers := q.pending
	q.pending = nil
	for _, entry := range leftovers {
		entry.state = stateDone
		delete(q.entries, entry.id)
	}
	JobQueueDepth.Set(0)
	q.mu.Unlock()

	for _, entry := range leftovers {
		log.Printf("Job %s was never picked up before shutdown, discarding", entry.id)
		if entry.job.Discarded != nil {
			entry.job.Discarded(entry.id)
		}
	}
}

// Enqueue records the job, invokes its Accepted hook while the entry is
// still invisible to workers, and returns the assigned job id immediately.
func (q *InMemoryJobQueue) Enqueue(job ports.QueuedJob) (string, error) {
	q.mu.Lock()
	if q.stopped || (q.ctx != nil && q.ctx.Err() != nil) {
		q.mu.Unlock()
		return "", ErrQueueStopped
	}
	q.mu.Unlock()

	id := uuid.New().String()

	if job.Accepted != nil {
		job.Accepted(id)
	}

	entry := &jobEntry{id: id, job: job, state: statePending}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		// Shutdown finished between acceptance and the append; the queued
		// update is already out, so settle the job as discarded.
		if job.Discarded != nil {
			job.Discarded(id)
		}
		return id, nil
	}
	q.pending = append(q.pending, entry)
	q.entries[id] = entry
	JobQueueDepth.Set(float64(len(q.pending)))
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return id, nil
}

// Cancel is idempotent. A pending entry is removed and discarded without
// ever starting; a running entry has its context cancelled; anything else
// is a silent no-op.
func (q *InMemoryJobQueue) Cancel(jobID string) {
	q.mu.Lock()
	entry, exists := q.entries[jobID]
	if !exists {
		q.mu.Unlock()
		return
	}

	switch entry.state {
	case statePending:
		for i, pending := range q.pending {
			if pending.id == jobID {
				q.pending = append(q.pending[:i], q.pending[i+1:]...)
				break
			}
		}
		entry.state = stateDone
		delete(q.entries, jobID)
		JobQueueDepth.Set(float64(len(q.pending)))
		q.mu.Unlock()

		log.Printf("Job %s cancelled before pickup, removed from queue", jobID)
		if entry.job.Discarded != nil {
			entry.job.Discarded(jobID)
		}

	case stateRunning:
		cancel := entry.cancel
		q.mu.Unlock()
		log.Printf("Job %s is running, signalling cancellation", jobID)
		cancel()

	default:
		q.mu.Unlock()
	}
}

func (q *InMemoryJobQueue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		if entry := q.dequeue(ctx); entry != nil {
			q.execute(entry)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
	}
}

// dequeue pops the oldest pending entry and marks it running, or returns nil
// when the queue is empty.
func (q *InMemoryJobQueue) dequeue(ctx context.Context) *jobEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	entry := q.pending[0]
	q.pending = q.pending[1:]
	JobQueueDepth.Set(float64(len(q.pending)))

	jobCtx, cancel := context.WithCancel(ctx)
	entry.state = stateRunning
	entry.cancel = cancel
	entry.jobCtx = jobCtx
	return entry
}

func (q *InMemoryJobQueue) execute(entry *jobEntry) {
	JobsCurrentlyRunning.Inc()
	defer JobsCurrentlyRunning.Dec()

	entry.job.Run(entry.jobCtx, entry.id)
	entry.cancel()

	q.mu.Lock()
	entry.state = stateDone
	delete(q.entries, entry.id)
	q.mu.Unlock()
}
