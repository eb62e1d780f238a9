package reactive

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// maxUpdateCount is the number of times a single watcher may be re-run
// within one flush before the circular-update guard aborts.
const maxUpdateCount = 100

// SchedulerHooks lets an embedder observe scheduler activity without the
// core depending on any metrics library.
type SchedulerHooks struct {
	// OnFlushStart fires when a flush begins, with the queue length.
	OnFlushStart func(queued int)

	// OnFlushEnd fires when a flush completes, with the number of watchers run.
	OnFlushEnd func(ran int)

	// OnRunaway fires when the circular-update guard aborts a flush.
	OnRunaway func(id uint64, label string, user bool)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the scheduler's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithHooks sets the scheduler's observer hooks.
func WithHooks(hooks SchedulerHooks) SchedulerOption {
	return func(s *Scheduler) {
		s.hooks = hooks
	}
}

// Scheduler is an id-ordered queue of dirty watchers flushed exactly once
// per batching cycle on its own run loop. Watcher ids are assigned in
// creation order, so a flush runs ancestors before descendants and a
// component's own watches before its render.
type Scheduler struct {
	loop   *Loop
	logger *slog.Logger
	hooks  SchedulerHooks

	mu       sync.Mutex
	queue    []*Watcher
	has      map[uint64]bool
	circular map[uint64]int
	waiting  bool
	flushing bool
	index    int

	// activated collects deferred activation callbacks queued during patch;
	// ran collects the watchers processed this flush for the bottom-up
	// updated pass.
	activated []func()
	ran       []*Watcher
}

// NewScheduler creates a scheduler with its own run loop.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		loop:     NewLoop(),
		logger:   slog.Default(),
		has:      make(map[uint64]bool),
		circular: make(map[uint64]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops the scheduler's run loop.
func (s *Scheduler) Close() {
	s.loop.Close()
}

// Do runs fn on the scheduler's loop and waits for it. All mutations inside
// one Do call coalesce into a single flush.
func (s *Scheduler) Do(fn func()) {
	s.loop.Do(fn)
}

// NextTick invokes the given callbacks after the current batching boundary
// and returns a handle closed at the same point. With no callbacks it is
// purely an awaitable boundary:
//
//	items.Push(row)
//	<-sched.NextTick()
//	// rendered output now reflects the push
func (s *Scheduler) NextTick(fns ...func()) <-chan struct{} {
	done := make(chan struct{})
	s.loop.Post(func() {
		defer close(done)
		for _, fn := range fns {
			fn()
		}
	})
	return done
}

// Defer schedules fn at the coarse deferral level, after every pending
// fine-grained task. Use for effects, like committing visible output, that
// must be ordered after all in-flight flush work.
func (s *Scheduler) Defer(fn func()) {
	s.loop.PostDeferred(fn)
}

// Flushing reports whether a flush is currently running.
func (s *Scheduler) Flushing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushing
}

// QueueActivated defers fn until the current flush completes. Activation
// callbacks run, in queue order, before the bottom-up updated pass.
func (s *Scheduler) QueueActivated(fn func()) {
	s.mu.Lock()
	s.activated = append(s.activated, fn)
	s.mu.Unlock()
}

// Enqueue adds a dirty watcher to the queue, deduplicated by id. The first
// enqueue of a cycle schedules a flush; further requests while one is
// pending or running coalesce. A re-entrant enqueue during a flush
// insertion-sorts the watcher into the unprocessed tail so that an id
// sorting after the cursor still runs in the same flush, preserving
// ascending-id order.
func (s *Scheduler) Enqueue(w *Watcher) {
	s.mu.Lock()

	if s.has[w.id] {
		s.mu.Unlock()
		return
	}
	s.has[w.id] = true

	if !s.flushing {
		s.queue = append(s.queue, w)
	} else {
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].id > w.id {
			i--
		}
		pos := i + 1
		s.queue = append(s.queue, nil)
		copy(s.queue[pos+1:], s.queue[pos:])
		s.queue[pos] = w
	}

	if !s.waiting {
		s.waiting = true
		s.mu.Unlock()
		s.loop.Post(s.flush)
		return
	}
	s.mu.Unlock()
}

// flush runs the queued watchers in ascending id order, exactly once per
// cycle, on the loop goroutine.
func (s *Scheduler) flush() {
	s.mu.Lock()
	s.flushing = true

	// Ascending id order guarantees ancestors render before descendants and
	// a component's watches run before its render watcher.
	sort.Slice(s.queue, func(i, j int) bool {
		return s.queue[i].id < s.queue[j].id
	})

	queued := len(s.queue)
	s.mu.Unlock()

	if s.hooks.OnFlushStart != nil {
		s.hooks.OnFlushStart(queued)
	}

	aborted := false

	s.mu.Lock()
	// The queue length is re-read every iteration: re-entrant enqueues grow
	// the tail mid-flush.
	for s.index = 0; s.index < len(s.queue); s.index++ {
		w := s.queue[s.index]

		// Pop the presence marker before running so a watcher that
		// re-enqueues itself during its own run is accepted as a new entry.
		delete(s.has, w.id)
		s.mu.Unlock()

		if w.before != nil && w.active {
			w.before()
		}
		w.Run()

		s.mu.Lock()
		if s.has[w.id] {
			s.circular[w.id]++
			if s.circular[w.id] > maxUpdateCount {
				kind := "render watcher"
				if w.user {
					kind = "user watch"
				}
				s.mu.Unlock()

				err := fmt.Errorf("%w: %s %q (id %d) exceeded %d runs in one flush",
					ErrCircularUpdate, kind, w.label, w.id, maxUpdateCount)
				s.logger.Error("aborting flush",
					"error", err,
					"watcher_id", w.id,
					"watcher", w.label,
					"kind", kind)
				if s.hooks.OnRunaway != nil {
					s.hooks.OnRunaway(w.id, w.label, w.user)
				}
				handleError(err, fmt.Sprintf("infinite update loop in %s %q", kind, w.label))

				s.mu.Lock()
				aborted = true
				break
			}
		}
		s.ran = append(s.ran, w)
	}

	activated := s.activated
	ran := s.ran

	// Reset all scheduler state before invoking deferred hooks, so hooks
	// that mutate state schedule a fresh flush.
	s.queue = nil
	s.has = make(map[uint64]bool)
	s.circular = make(map[uint64]int)
	s.waiting = false
	s.flushing = false
	s.index = 0
	s.activated = nil
	s.ran = nil
	s.mu.Unlock()

	for _, fn := range activated {
		fn()
	}

	// Updated hooks fire last-to-first: children, holding larger ids, settle
	// before their parents.
	for i := len(ran) - 1; i >= 0; i-- {
		w := ran[i]
		if w.updated != nil && w.active {
			w.updated()
		}
	}

	if s.hooks.OnFlushEnd != nil && !aborted {
		s.hooks.OnFlushEnd(len(ran))
	}
}
