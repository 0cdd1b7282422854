// Package worker provides the bounded goroutine pool that isolates analysis
// execution from the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitalsense/rppg-analyzer/pkg/logging"
)

var (
	// ErrQueueFull is returned by Submit when the task queue is at capacity
	ErrQueueFull = errors.New("task queue is full")

	// ErrPoolStopped is returned by Submit after Stop has been called
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Task represents a unit of work
type Task struct {
	ID      string
	Func    func(context.Context) error
	Created time.Time
}

// Metrics is a point-in-time snapshot of pool activity
type Metrics struct {
	Workers    int   `json:"workers"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Recovered  int64 `json:"recovered"`
}

// Pool manages a fixed set of worker goroutines fed from a bounded queue.
// Submission never blocks: a full queue is reported to the caller so the
// transport layer can shed load instead of stacking requests.
type Pool struct {
	workers int
	queue   chan Task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  logging.Logger

	mu      sync.RWMutex
	stopped bool

	submitted int64
	completed int64
	failed    int64
	recovered int64
}

// NewPool creates a worker pool. Non-positive worker counts default to
// twice the CPU count. A nil logger falls back to the default logger.
func NewPool(workers, queueSize int, logger logging.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: workers,
		queue:   make(chan Task, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.WithFields(logging.Fields{"component": "worker_pool"}),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Debug("worker pool started", logging.Fields{
		"workers":    p.workers,
		"queue_size": cap(p.queue),
	})
}

// Stop rejects further submissions, drains the queue, and waits for
// in-flight tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()

	p.logger.Debug("worker pool stopped", logging.Fields{
		"completed": atomic.LoadInt64(&p.completed),
		"failed":    atomic.LoadInt64(&p.failed),
	})
}

// Submit adds a task to the queue without blocking
func (p *Pool) Submit(taskID string, fn func(context.Context) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	task := Task{
		ID:      taskID,
		Func:    fn,
		Created: time.Now(),
	}

	select {
	case p.queue <- task:
		atomic.AddInt64(&p.submitted, 1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Metrics returns a snapshot of pool counters
func (p *Pool) Metrics() Metrics {
	return Metrics{
		Workers:    p.workers,
		QueueDepth: len(p.queue),
		Submitted:  atomic.LoadInt64(&p.submitted),
		Completed:  atomic.LoadInt64(&p.completed),
		Failed:     atomic.LoadInt64(&p.failed),
		Recovered:  atomic.LoadInt64(&p.recovered),
	}
}

// worker consumes tasks until the queue is closed
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.queue {
		p.runTask(id, task)
	}
}

// runTask executes one task. A panicking task is contained here so one bad
// request cannot take down the process; the submitter is responsible for
// its own panic-to-response mapping.
func (p *Pool) runTask(workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.recovered, 1)
			atomic.AddInt64(&p.failed, 1)
			p.logger.Error(fmt.Errorf("panic: %v", r), "task panicked", logging.Fields{
				"worker_id": workerID,
				"task_id":   task.ID,
			})
		}
	}()

	queueWait := time.Since(task.Created)
	start := time.Now()

	err := task.Func(p.ctx)

	if err != nil {
		atomic.AddInt64(&p.failed, 1)
		p.logger.Debug("task failed", logging.Fields{
			"worker_id":  workerID,
			"task_id":    task.ID,
			"queue_wait": queueWait.String(),
			"duration":   time.Since(start).String(),
			"error":      err.Error(),
		})
		return
	}

	atomic.AddInt64(&p.completed, 1)
	p.logger.Debug("task completed", logging.Fields{
		"worker_id":  workerID,
		"task_id":    task.ID,
		"queue_wait": queueWait.String(),
		"duration":   time.Since(start).String(),
	})
}
