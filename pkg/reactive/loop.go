package reactive

import (
	"sync"
	"sync/atomic"
)

// Loop is the single-goroutine run loop that serializes all reactive work:
// mutations posted via Do, scheduler flushes, and next-tick callbacks.
// It keeps two queues. The task queue is the fine-grained deferral level
// (drained completely each turn, the microtask analog); the deferred queue
// is the coarse level (one entry per turn, the macrotask analog) for work
// that must be ordered after everything already pending.
type Loop struct {
	mu       sync.Mutex
	tasks    []func()
	deferred []func()

	wake chan struct{}
	quit chan struct{}

	// gid is the loop goroutine's id, used to detect re-entrant Do calls.
	gid atomic.Uint64

	closed atomic.Bool
	done   chan struct{}
}

// NewLoop starts a run loop goroutine.
func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	l.gid.Store(goroutineID())
	defer close(l.done)

	for {
		task := l.next()
		if task == nil {
			select {
			case <-l.wake:
				continue
			case <-l.quit:
				return
			}
		}
		task()
	}
}

// next pops the next runnable task: the whole task queue drains before a
// single deferred entry is taken.
func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) > 0 {
		task := l.tasks[0]
		l.tasks = l.tasks[1:]
		return task
	}
	if len(l.deferred) > 0 {
		task := l.deferred[0]
		l.deferred = l.deferred[1:]
		return task
	}
	return nil
}

// Post enqueues fn at the fine-grained deferral level.
func (l *Loop) Post(fn func()) {
	if l.closed.Load() {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.notify()
}

// PostDeferred enqueues fn at the coarse deferral level: it runs only after
// every task already pending, and previously deferred entries, have run.
// Use for effects that must be ordered after all in-flight flush work.
func (l *Loop) PostDeferred(fn func()) {
	if l.closed.Load() {
		return
	}
	l.mu.Lock()
	l.deferred = append(l.deferred, fn)
	l.mu.Unlock()
	l.notify()
}

// Do runs fn on the loop goroutine and waits for it to finish. Calls made
// from the loop goroutine itself run inline, so re-entrant dispatch cannot
// deadlock. Do is the synchronous-burst boundary: every mutation inside one
// fn coalesces into a single scheduler flush.
func (l *Loop) Do(fn func()) {
	if goroutineID() == l.gid.Load() {
		fn()
		return
	}

	ran := make(chan struct{})
	l.Post(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
	case <-l.done:
	}
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Close rejects further posts and stops the loop once the already-queued
// tasks have drained. Idempotent.
func (l *Loop) Close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.quit)
}
