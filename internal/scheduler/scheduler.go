// Package scheduler provides a single-consumer priority queue for background
// ingestion and linking work. One worker goroutine drains the queue; tasks
// never run concurrently with each other.
package scheduler

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is a deferred unit of background work.
type Task func(ctx context.Context) error

// pollInterval bounds the blocking dequeue so the worker can observe a
// shutdown signal. It does not bound task execution time.
const pollInterval = 1 * time.Second

type item struct {
	name     string
	task     Task
	priority int
	seq      uint64
}

// taskHeap orders items by (priority, insertion sequence): strictly smaller
// priorities first, FIFO on ties.
type taskHeap []*item

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*item)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Worker serializes background tasks through a priority queue. Enqueue is
// fire-and-forget; a failing or panicking task is logged and the drain
// continues with the next item.
type Worker struct {
	mu      sync.Mutex
	tasks   taskHeap
	seq     uint64
	running bool
	idle    *sync.Cond

	notify   chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	logger *slog.Logger
}

// New creates a stopped worker. Call Start to begin draining.
func New(logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	w.idle = sync.NewCond(&w.mu)
	return w
}

// Enqueue adds a task with the given priority and returns immediately.
// Smaller priority values are executed first; equal priorities preserve
// enqueue order. The name is used only for log context.
func (w *Worker) Enqueue(name string, priority int, task Task) {
	w.mu.Lock()
	w.seq++
	heap.Push(&w.tasks, &item{name: name, task: task, priority: priority, seq: w.seq})
	n := len(w.tasks)
	w.mu.Unlock()

	w.logger.Debug("task enqueued", "task", name, "priority", priority, "queued", n)

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of queued (not yet started) tasks.
func (w *Worker) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tasks)
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Stop signals the worker to exit. The current task, if any, runs to
// completion; queued tasks are abandoned. Blocks until the worker goroutine
// has exited.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// Wait blocks until the queue is empty and no task is in flight.
func (w *Worker) Wait() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.tasks) > 0 || w.running {
		w.idle.Wait()
	}
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		it, ok := w.next()
		if !ok {
			select {
			case <-w.stop:
				return
			case <-w.notify:
			case <-time.After(pollInterval):
			}
			continue
		}

		w.execute(it)
	}
}

func (w *Worker) next() (*item, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.tasks) == 0 {
		return nil, false
	}
	it := heap.Pop(&w.tasks).(*item)
	w.running = true
	return it, true
}

// execute runs one task with a failure-isolating boundary. One bad task must
// not halt the drain of subsequent tasks.
func (w *Worker) execute(it *item) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("background task panicked", "task", it.name, "priority", it.priority, "panic", r)
		}
		w.mu.Lock()
		w.running = false
		w.idle.Broadcast()
		w.mu.Unlock()
	}()

	start := time.Now()
	if err := it.task(context.Background()); err != nil {
		w.logger.Error("background task failed",
			"task", it.name,
			"priority", it.priority,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return
	}
	w.logger.Debug("background task completed",
		"task", it.name,
		"priority", it.priority,
		"duration_ms", time.Since(start).Milliseconds())
}
