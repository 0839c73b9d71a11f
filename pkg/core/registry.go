package core

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// HookKey identifies a hook registered with a Registry.
type HookKey uint64

// Registry is an ordered set of disposal hooks that run exactly once.
//
// Keys increase monotonically, so ascending key order is registration order.
// DisposeAll detaches the whole set under the lock before running anything,
// which means a concurrent Remove either wins (the hook never runs) or loses
// (Remove returns false and the hook runs once).
type Registry struct {
	mu       sync.Mutex
	next     HookKey
	hooks    map[HookKey]Disposable
	disposed bool
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger discards.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		hooks:  make(map[HookKey]Disposable),
		logger: logger,
	}
}

// Add registers d. If the registry has already been disposed, d is disposed
// immediately and the returned key is unknown to Remove.
func (r *Registry) Add(d Disposable) HookKey {
	r.mu.Lock()
	r.next++
	key := r.next
	if r.disposed {
		r.mu.Unlock()
		r.dispose(key, d)
		return key
	}
	r.hooks[key] = d
	r.mu.Unlock()
	return key
}

// Remove deregisters the hook with key. It reports whether the hook was still
// registered; a removed hook is not run.
func (r *Registry) Remove(key HookKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[key]; !ok {
		return false
	}
	delete(r.hooks, key)
	return true
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks)
}

// Disposed reports whether DisposeAll has been called.
func (r *Registry) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// DisposeAll runs every registered hook once, in registration order. A hook
// that panics is logged and does not prevent the remaining hooks from running.
// Calls after the first are no-ops.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	hooks := r.hooks
	r.hooks = make(map[HookKey]Disposable)
	r.mu.Unlock()

	keys := make([]HookKey, 0, len(hooks))
	for k := range hooks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		r.dispose(k, hooks[k])
	}
}

func (r *Registry) dispose(key HookKey, d Disposable) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("disposal hook panicked",
				slog.Uint64("hook", uint64(key)),
				slog.String("panic", fmt.Sprint(rec)))
		}
	}()
	d.Dispose()
}
