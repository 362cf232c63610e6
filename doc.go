// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fanq provides bounded wait-free message queues with exclusive
// producer/consumer handles.
//
// Two variants are offered:
//
//   - SPSC: Single-Producer Single-Consumer point-to-point queue
//   - SPMC: Single-Producer Multi-Consumer broadcast queue
//
// Unlike a work-distribution queue, the SPMC broadcast queue delivers
// every item to every registered consumer. Each consumer owns an
// independent read cursor and observes the entire stream from its
// registration point forward, at its own pace. The producer accepts new
// items only while the slowest active consumer leaves room in the ring,
// so memory stays bounded and no unread slot is ever overwritten.
//
// # Quick Start
//
//	q := fanq.NewSPSC[Event](1024)
//
//	p, err := q.AcquireProducer()
//	if err != nil {
//	    // producer claim already held
//	}
//	defer p.Close()
//
//	c, err := q.AcquireConsumer()
//	if err != nil {
//	    // consumer claim already held
//	}
//	defer c.Close()
//
//	ev := Event{ID: 1}
//	if err := p.Push(&ev); err != nil {
//	    // queue full - handle backpressure
//	}
//
//	got, err := c.Pop()
//	if fanq.IsWouldBlock(err) {
//	    // queue empty - try again later
//	}
//
// # Handles and Claims
//
// Queues expose no push or pop of their own. All data operations go
// through handles acquired from the queue:
//
//	AcquireProducer() - exactly one outstanding producer per queue
//	AcquireConsumer() - SPSC: exactly one outstanding consumer
//	                    SPMC: up to maxConsumers outstanding
//
// A handle is a single-ownership token: acquire it once, use it from one
// goroutine, and Close it to release the claim. Closing an SPSC handle
// does not reset the ring or the sequence counters; a later handle
// resumes where the previous one left off. Closing an SPMC consumer
// frees its slot for a future registrant, which starts fresh at the
// then-current head.
//
// A handle must not be used after Close and must not outlive its queue.
//
// # Broadcast Pattern
//
//	q := fanq.NewSPMC[Tick](4096, 16)
//
//	// Single producer
//	go func() {
//	    p, _ := q.AcquireProducer()
//	    defer p.Close()
//	    backoff := iox.Backoff{}
//	    for tick := range feed {
//	        for p.Push(&tick) != nil {
//	            backoff.Wait() // slowest consumer is behind
//	        }
//	        backoff.Reset()
//	    }
//	}()
//
//	// Independent consumers, each sees the full stream
//	for range numSubscribers {
//	    go func() {
//	        c, err := q.AcquireConsumer()
//	        if err != nil {
//	            return // all consumer slots taken
//	        }
//	        defer c.Close()
//	        for {
//	            tick, err := c.Pop()
//	            if err == nil {
//	                process(tick)
//	            }
//	        }
//	    }()
//	}
//
// # Non-Blocking Contract
//
// Every operation returns immediately. Push returns [ErrWouldBlock] when
// the ring is full, Pop/Peek when it is empty; both are control flow
// signals, not failures. Callers that want to block use [PushContext]
// and [PopContext], which spin briefly and then back off until the
// operation succeeds or the context is done. No lock, fence, or wait
// primitive exists on the push/pop fast path; the only synchronization
// is the release-store of a sequence counter paired with acquire loads
// on the reader side.
//
// # Element Types
//
// Elements are copied into and out of the ring by value. Keep T small
// and self-contained: a type holding pointers keeps its referents alive
// until the slot is overwritten (SPSC zeroes slots on pop; the broadcast
// queue cannot, since other consumers still read them).
//
// # Count Snapshots
//
// Len on handles and queues reports min(head-tail, capacity) from
// independently read counters. The value is a racy snapshot intended for
// observability; never use it to decide whether Push or Pop will
// succeed.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before edges established
// through atomix memory orderings and reports false positives on the
// ring buffer accesses. Concurrent tests are skipped under -race; see
// [RaceEnabled].
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions.
package fanq
