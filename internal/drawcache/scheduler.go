package drawcache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Faultbox/meshcache/internal/config"
)

// Scheduler runs a batch of independent extraction jobs and returns once all
// of them have finished.
type Scheduler interface {
	Run(jobs []func())
	Close()
}

// NewScheduler builds the scheduler cfg describes: serial for one worker,
// otherwise a pool.
func NewScheduler(cfg config.CacheConfig) Scheduler {
	n := cfg.WorkerCount()
	if n <= 1 {
		return SerialScheduler{}
	}
	return NewPoolScheduler(n, cfg.QueueSize, cfg.IdleTimeout, cfg.ParallelThreshold)
}

// SerialScheduler runs jobs one after another on the calling goroutine.
type SerialScheduler struct{}

// Run executes jobs in order.
func (SerialScheduler) Run(jobs []func()) {
	for _, job := range jobs {
		job()
	}
}

// Close does nothing.
func (SerialScheduler) Close() {}

// PoolScheduler fans jobs out to a persistent worker pool. Workers are
// reused across passes; a WaitGroup is the per-pass barrier since the pool's
// own Wait only returns once workers idle out.
type PoolScheduler struct {
	pool      worker.DynamicWorkerPool
	threshold int
	nextID    atomic.Int64
}

// NewPoolScheduler starts a pool of up to workers goroutines. Passes with
// fewer than threshold jobs run inline.
func NewPoolScheduler(workers, queueSize int, idleTimeout time.Duration, threshold int) *PoolScheduler {
	return &PoolScheduler{
		pool:      worker.NewDynamicWorkerPool(max(workers, 1), max(queueSize, 1), idleTimeout),
		threshold: max(threshold, 1),
	}
}

// Run submits every job and blocks until all have completed.
func (s *PoolScheduler) Run(jobs []func()) {
	if len(jobs) < s.threshold {
		SerialScheduler{}.Run(jobs)
		return
	}
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		s.pool.SubmitTask(worker.Task{
			ID: int(s.nextID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				job()
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// Close stops the pool's workers.
func (s *PoolScheduler) Close() {
	s.pool.Stop()
}
