package ports

import "context"

// QueuedJob is one unit of asynchronous work handed to the job runner.
// The runner invokes exactly one of Run or Discarded for every accepted job.
type QueuedJob struct {
	// Accepted is called synchronously inside Enqueue, after the job has
	// been assigned its id but before any worker can pick it up. Updates
	// published here are therefore ordered before any update from Run.
	Accepted func(jobID string)

	// Run executes the job on a worker. The context is cancelled when the
	// job is cancelled while running; the body must check it at bounded
	// intervals (at minimum between page fetches) and stop promptly.
	Run func(ctx context.Context, jobID string)

	// Discarded is called when the job is cancelled before pickup and
	// removed from the queue. Run is never called for a discarded job.
	Discarded func(jobID string)
}

// JobQueue is the durable background-job runner contract. Enqueue records
// the job and returns its id immediately, before any execution happens.
// Cancel is idempotent: cancelling an unknown or already-terminal job is a
// silent no-op, because the runner may have pruned its bookkeeping.
type JobQueue interface {
	Enqueue(job QueuedJob) (string, error)
	Cancel(jobID string)
}
