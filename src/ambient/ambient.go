// Package ambient holds read-mostly values that many components of a page
// depend on, like the logged-in viewer or the backend's feature flags.
// Components read the current value and can subscribe to replacements.
package ambient

import "sync"

type Value[T any] struct {
	mu      sync.RWMutex
	current T
	nextID  int
	subs    map[int]func(T)
}

func New[T any](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the value and calls every subscriber with it. Subscribers
// run on the caller's goroutine after the lock is released.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.current = val
	subs := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(val)
	}
}

// Subscribe registers fn for future changes. Call the returned func to stop.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.subs == nil {
		v.subs = make(map[int]func(T))
	}
	id := v.nextID
	v.nextID++
	v.subs[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}
