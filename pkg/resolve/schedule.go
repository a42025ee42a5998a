package resolve

import (
	"sync"
	"time"
)

// Scheduler defers a task until the host has observed the current mutation
// (view refresh, undo bookkeeping). Implementations must not run the task
// synchronously inside Schedule.
type Scheduler interface {
	Schedule(task func())
}

// Queue is a deferred FIFO of tasks for hosts with their own tick. Tasks run
// when the host calls Drain, never from Schedule.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

// NewQueue returns an empty task queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule appends task to the queue.
func (q *Queue) Schedule(task func()) {
	q.mu.Lock()
	q.pending = append(q.pending, task)
	q.mu.Unlock()
}

// Len returns the number of tasks waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs queued tasks in order until the queue is empty, including tasks
// scheduled while draining. It returns the number of tasks run.
func (q *Queue) Drain() int {
	ran := 0
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return ran
		}
		task := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		task()
		ran++
	}
}

// AfterFunc schedules tasks on a timer. The task runs on its own goroutine,
// so the host must serialize it with any other access to the boxes.
type AfterFunc struct {
	Delay time.Duration
}

func (a AfterFunc) Schedule(task func()) {
	time.AfterFunc(a.Delay, task)
}
