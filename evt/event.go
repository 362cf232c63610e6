// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package evt provides the notification primitives that queue users
// layer on top of the non-blocking core: a mutex-guarded subscription
// list for fan-out callbacks and a bounded counting semaphore for
// blocking waiters.
//
// These primitives are deliberately ordinary. The wait-free queues in
// the parent package carry all the concurrency-sensitive logic; evt
// only wakes and notifies around them.
package evt

import (
	"slices"
	"sync"

	"code.hybscloud.com/atomix"
)

// Event is a thread-safe subscription list.
//
// Subscribers register callbacks with Subscribe and are invoked, in
// registration order, on every Emit. Emit snapshots the list under the
// lock and invokes callbacks outside it, so a callback may itself
// subscribe or unsubscribe without deadlocking.
//
// A Subscription must not outlive its Event.
type Event[T any] struct {
	mu       sync.Mutex
	handlers []handler[T]
	nextID   atomix.Uint64
}

type handler[T any] struct {
	id uint64
	fn func(T)
}

// Subscription represents one registered callback.
// Dropping a Subscription without calling Unsubscribe leaks the
// callback registration.
type Subscription[T any] struct {
	ev *Event[T]
	id uint64
}

// Subscribe registers fn to be called on every subsequent Emit.
func (e *Event[T]) Subscribe(fn func(T)) *Subscription[T] {
	id := e.nextID.AddAcqRel(1) - 1

	e.mu.Lock()
	e.handlers = append(e.handlers, handler[T]{id: id, fn: fn})
	e.mu.Unlock()

	return &Subscription[T]{ev: e, id: id}
}

// Emit invokes every registered callback with v.
//
// Callbacks run on the calling goroutine. A callback registered or
// removed during Emit takes effect from the next Emit.
func (e *Event[T]) Emit(v T) {
	e.mu.Lock()
	snapshot := slices.Clone(e.handlers)
	e.mu.Unlock()

	for _, h := range snapshot {
		h.fn(v)
	}
}

// SubscriberCount returns the number of registered callbacks.
func (e *Event[T]) SubscriberCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

func (e *Event[T]) unsubscribe(id uint64) {
	e.mu.Lock()
	e.handlers = slices.DeleteFunc(e.handlers, func(h handler[T]) bool {
		return h.id == id
	})
	e.mu.Unlock()
}

// Unsubscribe removes the callback from its Event.
// Unsubscribe is idempotent.
func (s *Subscription[T]) Unsubscribe() {
	if s.ev != nil {
		s.ev.unsubscribe(s.id)
		s.ev = nil
	}
}

// Active reports whether the subscription is still registered.
func (s *Subscription[T]) Active() bool {
	return s.ev != nil
}
