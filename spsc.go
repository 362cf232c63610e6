// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fanq

import "code.hybscloud.com/atomix"

// SPSC is a single-producer single-consumer bounded queue.
//
// Based on Lamport's ring buffer with cached index optimization.
// The producer caches the consumer's read index, and vice versa,
// reducing cross-core cache line traffic: the authoritative counter is
// reloaded with acquire ordering only when the cached view says the
// ring is full (producer) or empty (consumer).
//
// The queue itself exposes no data operations; Push and Pop live on the
// handles returned by AcquireProducer and AcquireConsumer. At most one
// handle of each kind is outstanding at a time.
//
// Memory: O(capacity) with minimal per-slot overhead
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // Producer's next write sequence
	_          pad
	cachedTail uint64 // Producer's cached view of tail
	_          pad
	tail       atomix.Uint64 // Consumer's next read sequence
	_          pad
	cachedHead uint64 // Consumer's cached view of head
	_          pad
	producerClaim atomix.Bool
	consumerClaim atomix.Bool
	buffer        []T
	mask          uint64
}

// NewSPSC creates a new SPSC queue.
// Capacity rounds up to the next power of 2.
// Panics if capacity < 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	if capacity < 2 {
		panic("fanq: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	return &SPSC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// AcquireProducer claims the producer side of the queue.
// Returns ErrClaimed while a previously acquired producer handle is
// still open. Sequence counters and ring contents carry over from any
// earlier producer.
func (q *SPSC[T]) AcquireProducer() (*SPSCProducer[T], error) {
	if !q.producerClaim.CompareAndSwapAcqRel(false, true) {
		return nil, ErrClaimed
	}
	return &SPSCProducer[T]{q: q}, nil
}

// AcquireConsumer claims the consumer side of the queue.
// Returns ErrClaimed while a previously acquired consumer handle is
// still open.
func (q *SPSC[T]) AcquireConsumer() (*SPSCConsumer[T], error) {
	if !q.consumerClaim.CompareAndSwapAcqRel(false, true) {
		return nil, ErrClaimed
	}
	return &SPSCConsumer[T]{q: q}, nil
}

// Cap returns the queue capacity.
func (q *SPSC[T]) Cap() int {
	return int(q.mask + 1)
}

// Len returns a racy snapshot of the number of buffered elements,
// clamped to Cap. Observability only; do not use it to predict whether
// Push or Pop will succeed.
func (q *SPSC[T]) Len() int {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	if diff := head - tail; diff <= q.mask {
		return int(diff)
	}
	return q.Cap()
}

func (q *SPSC[T]) push(elem *T) error {
	head := q.head.LoadRelaxed()
	if head-q.cachedTail > q.mask {
		q.cachedTail = q.tail.LoadAcquire()
		if head-q.cachedTail > q.mask {
			return ErrWouldBlock
		}
	}

	q.buffer[head&q.mask] = *elem
	q.head.StoreRelease(head + 1)
	return nil
}

func (q *SPSC[T]) pop() (T, error) {
	tail := q.tail.LoadRelaxed()
	if tail >= q.cachedHead {
		q.cachedHead = q.head.LoadAcquire()
		if tail >= q.cachedHead {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	elem := q.buffer[tail&q.mask]
	var zero T
	q.buffer[tail&q.mask] = zero
	q.tail.StoreRelease(tail + 1)
	return elem, nil
}

func (q *SPSC[T]) peek() (T, error) {
	tail := q.tail.LoadRelaxed()
	if tail >= q.cachedHead {
		q.cachedHead = q.head.LoadAcquire()
		if tail >= q.cachedHead {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	return q.buffer[tail&q.mask], nil
}

// SPSCProducer is the exclusive write handle of an SPSC queue.
//
// A producer must be used from a single goroutine and must not outlive
// its queue. Close releases the claim; the handle must not be used
// afterwards.
type SPSCProducer[T any] struct {
	q *SPSC[T]
}

// Push adds an element to the queue (non-blocking).
// The element is copied into the ring.
// Returns ErrWouldBlock if the ring is full.
func (p *SPSCProducer[T]) Push(elem *T) error {
	return p.q.push(elem)
}

// Len returns a racy snapshot of the number of buffered elements.
func (p *SPSCProducer[T]) Len() int {
	return p.q.Len()
}

// Close releases the producer claim so a new producer handle can be
// acquired. The ring contents and sequence counters are not reset.
// Close is idempotent.
func (p *SPSCProducer[T]) Close() error {
	if p.q != nil {
		p.q.producerClaim.StoreRelease(false)
		p.q = nil
	}
	return nil
}

// SPSCConsumer is the exclusive read handle of an SPSC queue.
//
// A consumer must be used from a single goroutine and must not outlive
// its queue. Close releases the claim; the handle must not be used
// afterwards.
type SPSCConsumer[T any] struct {
	q *SPSC[T]
}

// Pop removes and returns the next element (non-blocking).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (c *SPSCConsumer[T]) Pop() (T, error) {
	return c.q.pop()
}

// TryPop removes the next element into *out (non-blocking).
// Reports false without touching *out if the queue is empty.
func (c *SPSCConsumer[T]) TryPop(out *T) bool {
	elem, err := c.q.pop()
	if err != nil {
		return false
	}
	*out = elem
	return true
}

// Peek returns the next element without consuming it (non-blocking).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (c *SPSCConsumer[T]) Peek() (T, error) {
	return c.q.peek()
}

// TryPeek copies the next element into *out without consuming it.
// Reports false without touching *out if the queue is empty.
func (c *SPSCConsumer[T]) TryPeek(out *T) bool {
	elem, err := c.q.peek()
	if err != nil {
		return false
	}
	*out = elem
	return true
}

// Len returns a racy snapshot of the number of buffered elements.
func (c *SPSCConsumer[T]) Len() int {
	return c.q.Len()
}

// Close releases the consumer claim so a new consumer handle can be
// acquired. The ring contents and sequence counters are not reset;
// a later consumer resumes at the current tail. Close is idempotent.
func (c *SPSCConsumer[T]) Close() error {
	if c.q != nil {
		c.q.consumerClaim.StoreRelease(false)
		c.q = nil
	}
	return nil
}
