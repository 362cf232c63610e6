// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fanq

import "code.hybscloud.com/atomix"

// Consumer slot lifecycle. The intermediate initializing state keeps a
// concurrent producer from reading a half-initialized tail: the tail is
// written before the slot is published as active, and the producer only
// trusts tails of active slots.
const (
	slotFree int32 = iota
	slotInitializing
	slotActive
)

// consumerSlot is one registration slot of a broadcast queue.
// Padded to a full cache line so independent consumers never share one.
type consumerSlot struct {
	state atomix.Int32
	_     [4]byte
	tail  atomix.Uint64
	_     [48]byte
}

// SPMC is a single-producer multi-consumer broadcast bounded queue.
//
// Every active consumer observes the entire stream from its
// registration point forward, at its own pace, through an independent
// read cursor. The producer measures fullness against the slowest
// active consumer, so no unread slot is ever overwritten; with no
// active consumers the producer self-limits against its own head after
// capacity unconsumed items.
//
// The queue itself exposes no data operations; Push and Pop live on the
// handles returned by AcquireProducer and AcquireConsumer. At most one
// producer and up to maxConsumers consumers are outstanding at a time.
//
// Memory: O(capacity + maxConsumers)
type SPMC[T any] struct {
	_    pad
	head atomix.Uint64 // Producer's next write sequence
	_    pad
	producerClaim atomix.Bool
	buffer        []T
	mask          uint64
	slots         []consumerSlot
}

// NewSPMC creates a new SPMC broadcast queue for up to maxConsumers
// concurrently registered consumers.
// Capacity rounds up to the next power of 2.
// Panics if capacity < 2 or maxConsumers < 1.
func NewSPMC[T any](capacity, maxConsumers int) *SPMC[T] {
	if capacity < 2 {
		panic("fanq: capacity must be >= 2")
	}
	if maxConsumers < 1 {
		panic("fanq: maxConsumers must be >= 1")
	}

	n := uint64(roundToPow2(capacity))
	return &SPMC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
		slots:  make([]consumerSlot, maxConsumers),
	}
}

// AcquireProducer claims the producer side of the queue.
// Returns ErrClaimed while a previously acquired producer handle is
// still open.
func (q *SPMC[T]) AcquireProducer() (*SPMCProducer[T], error) {
	if !q.producerClaim.CompareAndSwapAcqRel(false, true) {
		return nil, ErrClaimed
	}
	return &SPMCProducer[T]{q: q}, nil
}

// AcquireConsumer registers a new consumer and returns its handle.
//
// The consumer starts at the current head: it observes only elements
// pushed after registration, never historical backlog. Returns
// ErrNoFreeSlot when maxConsumers handles are already outstanding.
func (q *SPMC[T]) AcquireConsumer() (*SPMCConsumer[T], error) {
	head := q.head.LoadAcquire()

	for i := range q.slots {
		s := &q.slots[i]
		if !s.state.CompareAndSwapAcqRel(slotFree, slotInitializing) {
			continue
		}
		s.tail.StoreRelaxed(head)
		s.state.StoreRelease(slotActive)
		return &SPMCConsumer[T]{q: q, slot: i}, nil
	}

	return nil, ErrNoFreeSlot
}

// Cap returns the queue capacity.
func (q *SPMC[T]) Cap() int {
	return int(q.mask + 1)
}

// MaxConsumers returns the number of consumer registration slots.
func (q *SPMC[T]) MaxConsumers() int {
	return len(q.slots)
}

// Len returns a racy snapshot of the backlog relative to the slowest
// active consumer (or to head if none is active), clamped to Cap.
// Observability only.
func (q *SPMC[T]) Len() int {
	head := q.head.LoadAcquire()
	if diff := head - q.minTailSnapshot(head); diff <= q.mask {
		return int(diff)
	}
	return q.Cap()
}

// minTailSnapshot reads the minimum tail across active slots.
//
// The per-slot reads are independent, not an atomically consistent
// cross-slot view. A tail advances only after its consumer finished
// reading the covered slot, so a stale read can only underestimate:
// the resulting fullness check is conservative, never unsafe.
func (q *SPMC[T]) minTailSnapshot(head uint64) uint64 {
	minTail := head
	for i := range q.slots {
		s := &q.slots[i]
		if s.state.LoadAcquire() != slotActive {
			continue
		}
		if t := s.tail.LoadRelaxed(); t < minTail {
			minTail = t
		}
	}
	return minTail
}

func (q *SPMC[T]) push(elem *T) error {
	head := q.head.LoadRelaxed()
	if head-q.minTailSnapshot(head) > q.mask {
		return ErrWouldBlock
	}

	q.buffer[head&q.mask] = *elem
	q.head.StoreRelease(head + 1)
	return nil
}

// popAt consumes the next element of slot idx. The ring slot is not
// zeroed: other consumers may still be reading it.
func (q *SPMC[T]) popAt(idx int) (T, error) {
	head := q.head.LoadAcquire()
	s := &q.slots[idx]
	tail := s.tail.LoadRelaxed()

	if tail >= head {
		var zero T
		return zero, ErrWouldBlock
	}

	elem := q.buffer[tail&q.mask]
	s.tail.StoreRelease(tail + 1)
	return elem, nil
}

func (q *SPMC[T]) peekAt(idx int) (T, error) {
	head := q.head.LoadAcquire()
	tail := q.slots[idx].tail.LoadRelaxed()

	if tail >= head {
		var zero T
		return zero, ErrWouldBlock
	}

	return q.buffer[tail&q.mask], nil
}

func (q *SPMC[T]) lenAt(idx int) int {
	head := q.head.LoadAcquire()
	tail := q.slots[idx].tail.LoadRelaxed()
	if diff := head - tail; diff <= q.mask {
		return int(diff)
	}
	return q.Cap()
}

// releaseSlot returns slot idx to the free pool. The stale tail is
// reset first so a future registrant can never misread it as a valid
// sequence.
func (q *SPMC[T]) releaseSlot(idx int) {
	s := &q.slots[idx]
	s.tail.StoreRelaxed(0)
	s.state.StoreRelease(slotFree)
}

// SPMCProducer is the exclusive write handle of an SPMC broadcast
// queue.
//
// A producer must be used from a single goroutine and must not outlive
// its queue. Close releases the claim; the handle must not be used
// afterwards.
type SPMCProducer[T any] struct {
	q *SPMC[T]
}

// Push broadcasts an element to all active consumers (non-blocking).
// The element is copied into the ring.
// Returns ErrWouldBlock when the slowest active consumer (or, with no
// consumers, the producer's own window) leaves no room in the ring.
func (p *SPMCProducer[T]) Push(elem *T) error {
	return p.q.push(elem)
}

// Len returns a racy snapshot of the backlog relative to the slowest
// active consumer.
func (p *SPMCProducer[T]) Len() int {
	return p.q.Len()
}

// Close releases the producer claim so a new producer handle can be
// acquired. The ring contents and head sequence are not reset.
// Close is idempotent.
func (p *SPMCProducer[T]) Close() error {
	if p.q != nil {
		p.q.producerClaim.StoreRelease(false)
		p.q = nil
	}
	return nil
}

// SPMCConsumer is an independent read handle of an SPMC broadcast
// queue, bound to one registration slot.
//
// A consumer must be used from a single goroutine and must not outlive
// its queue. Close releases the slot; the handle must not be used
// afterwards.
type SPMCConsumer[T any] struct {
	q    *SPMC[T]
	slot int
}

// Pop removes and returns this consumer's next element (non-blocking).
// Other consumers are unaffected.
// Returns (zero-value, ErrWouldBlock) if this consumer has caught up
// with the producer.
func (c *SPMCConsumer[T]) Pop() (T, error) {
	return c.q.popAt(c.slot)
}

// TryPop removes this consumer's next element into *out (non-blocking).
// Reports false without touching *out if the consumer has caught up.
func (c *SPMCConsumer[T]) TryPop(out *T) bool {
	elem, err := c.q.popAt(c.slot)
	if err != nil {
		return false
	}
	*out = elem
	return true
}

// Peek returns this consumer's next element without consuming it.
// Returns (zero-value, ErrWouldBlock) if the consumer has caught up.
func (c *SPMCConsumer[T]) Peek() (T, error) {
	return c.q.peekAt(c.slot)
}

// TryPeek copies this consumer's next element into *out without
// consuming it. Reports false without touching *out if the consumer has
// caught up.
func (c *SPMCConsumer[T]) TryPeek(out *T) bool {
	elem, err := c.q.peekAt(c.slot)
	if err != nil {
		return false
	}
	*out = elem
	return true
}

// Len returns a racy snapshot of this consumer's backlog.
func (c *SPMCConsumer[T]) Len() int {
	return c.q.lenAt(c.slot)
}

// Close deregisters the consumer and frees its slot for a future
// registrant, which will start fresh at the then-current head.
// Close is idempotent.
func (c *SPMCConsumer[T]) Close() error {
	if c.q != nil {
		c.q.releaseSlot(c.slot)
		c.q = nil
	}
	return nil
}
