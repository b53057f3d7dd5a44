package store

import (
	"slices"
	"sync"
)

// hub fans snapshots out to subscribers. Each subscriber owns a goroutine
// and a one-slot mailbox, so a slow subscriber only ever sees the newest
// snapshot and never blocks the publisher.
type hub[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber[T]
	last   []T
	loaded bool
}

type subscriber[T any] struct {
	snapshots chan []T
	errs      chan error
	done      chan struct{}
	once      sync.Once
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[int]*subscriber[T])}
}

func (h *hub[T]) subscribe(onSnapshot func([]T), onError func(error)) Unsubscribe {
	s := &subscriber[T]{
		snapshots: make(chan []T, 1),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = s
	var current []T
	loaded := h.loaded
	if loaded {
		current = slices.Clone(h.last)
	}
	h.mu.Unlock()

	// The cached snapshot is delivered before Subscribe returns. Anything
	// published meanwhile waits in the mailbox and is delivered after it.
	if loaded && onSnapshot != nil {
		onSnapshot(current)
	}
	go s.run(onSnapshot, onError)

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		s.once.Do(func() { close(s.done) })
	}
}

func (h *hub[T]) publish(snapshot []T) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = snapshot
	h.loaded = true
	for _, s := range h.subs {
		offer(s.snapshots, slices.Clone(snapshot))
	}
	return len(h.subs)
}

func (h *hub[T]) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		offer(s.errs, err)
	}
}

func (h *hub[T]) closeAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[int]*subscriber[T])
	h.mu.Unlock()

	for _, s := range subs {
		s.once.Do(func() { close(s.done) })
	}
}

func (s *subscriber[T]) run(onSnapshot func([]T), onError func(error)) {
	for {
		select {
		case <-s.done:
			return
		case snap := <-s.snapshots:
			if onSnapshot != nil {
				onSnapshot(snap)
			}
		case err := <-s.errs:
			if onError != nil {
				onError(err)
			}
		}
	}
}

// offer replaces whatever is waiting in a one-slot mailbox. Callers hold
// the hub lock, so there is a single producer per mailbox.
func offer[V any](mailbox chan V, v V) {
	select {
	case mailbox <- v:
		return
	default:
	}
	select {
	case <-mailbox:
	default:
	}
	mailbox <- v
}
