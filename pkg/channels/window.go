package channels

import "sync"

// window is a mutex-guarded pending buffer. The buffer is only reachable
// through put and take, which both hold the lock.
type window[B any] struct {
	mu      sync.Mutex
	pending B
	open    bool
	closed  bool
	fresh   func() B
}

func newWindow[B any](fresh func() B) *window[B] {
	return &window[B]{fresh: fresh}
}

// put applies add to the pending buffer and reports whether this call
// opened the window. A closed window drops the message.
func (w *window[B]) put(add func(B) B) (opened bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}
	if !w.open {
		w.pending = w.fresh()
		w.open = true
		opened = true
	}
	w.pending = add(w.pending)
	return opened
}

// take closes the window and returns what it held.
func (w *window[B]) take() B {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := w.pending
	var zero B
	w.pending = zero
	w.open = false
	return out
}

// close discards the pending buffer and refuses further puts. It runs when the
// owning fiber stops, since a flush that was scheduled will never arrive.
func (w *window[B]) close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	var zero B
	w.pending = zero
	w.open = false
	w.closed = true
}
