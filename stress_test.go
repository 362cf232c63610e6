// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fanq_test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/fanq"
	"code.hybscloud.com/iox"
	"github.com/valyala/fastrand"
)

const stressTimeout = 30 * time.Second

// maybeYield gives up the CPU on a random subset of iterations so the
// producer and consumers interleave at varying paces.
func maybeYield() {
	if fastrand.Uint32n(64) == 0 {
		runtime.Gosched()
	}
}

// TestSPSCConcurrentFIFO runs one producer against one consumer and
// verifies the consumer observes exactly the pushed sequence: no
// duplicate, no skip, no reorder.
func TestSPSCConcurrentFIFO(t *testing.T) {
	if fanq.RaceEnabled {
		t.Skip("skip: atomix orderings are invisible to the race detector")
	}

	const total = 200_000
	q := fanq.NewSPSC[int](1024)
	p, err := q.AcquireProducer()
	if err != nil {
		t.Fatalf("AcquireProducer: %v", err)
	}
	defer p.Close()
	c, err := q.AcquireConsumer()
	if err != nil {
		t.Fatalf("AcquireConsumer: %v", err)
	}
	defer c.Close()

	var timedOut atomix.Bool
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		deadline := time.Now().Add(stressTimeout)
		backoff := iox.Backoff{}
		for i := range total {
			v := i
			for p.Push(&v) != nil {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				backoff.Wait()
			}
			backoff.Reset()
			maybeYield()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		deadline := time.Now().Add(stressTimeout)
		backoff := iox.Backoff{}
		for expected := 0; expected < total; {
			v, err := c.Pop()
			if err != nil {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				backoff.Wait()
				continue
			}
			backoff.Reset()
			if v != expected {
				t.Errorf("pop: got %d, want %d", v, expected)
				return
			}
			expected++
			maybeYield()
		}
	}()

	wg.Wait()
	if timedOut.Load() {
		t.Fatal("stress run timed out")
	}
}

// TestSPMCBroadcastConcurrent registers several consumers before
// production starts and verifies each observes the complete stream in
// order while popping at independent, randomized paces.
func TestSPMCBroadcastConcurrent(t *testing.T) {
	if fanq.RaceEnabled {
		t.Skip("skip: atomix orderings are invisible to the race detector")
	}

	const (
		total        = 100_000
		numConsumers = 4
	)
	q := fanq.NewSPMC[int](512, numConsumers)
	p, err := q.AcquireProducer()
	if err != nil {
		t.Fatalf("AcquireProducer: %v", err)
	}
	defer p.Close()

	var timedOut atomix.Bool
	var wg sync.WaitGroup

	for i := range numConsumers {
		c, err := q.AcquireConsumer()
		if err != nil {
			t.Fatalf("AcquireConsumer(%d): %v", i, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.Close()
			deadline := time.Now().Add(stressTimeout)
			backoff := iox.Backoff{}
			for expected := 0; expected < total; {
				v, err := c.Pop()
				if err != nil {
					if time.Now().After(deadline) {
						timedOut.Store(true)
						return
					}
					backoff.Wait()
					continue
				}
				backoff.Reset()
				if v != expected {
					t.Errorf("pop: got %d, want %d", v, expected)
					return
				}
				expected++
				maybeYield()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		deadline := time.Now().Add(stressTimeout)
		backoff := iox.Backoff{}
		for i := range total {
			v := i
			for p.Push(&v) != nil {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				backoff.Wait()
			}
			backoff.Reset()
			maybeYield()
		}
	}()

	wg.Wait()
	if timedOut.Load() {
		t.Fatal("stress run timed out")
	}
}

// TestSPMCConsumerChurn runs a producer against one persistent consumer
// while short-lived consumers register, pop a contiguous run, and
// deregister concurrently. Every observed run must be strictly
// ascending by one from its own starting point.
func TestSPMCConsumerChurn(t *testing.T) {
	if fanq.RaceEnabled {
		t.Skip("skip: atomix orderings are invisible to the race detector")
	}

	const (
		total       = 50_000
		numChurners = 3
		runLength   = 64
	)
	q := fanq.NewSPMC[int](256, numChurners+1)
	p, err := q.AcquireProducer()
	if err != nil {
		t.Fatalf("AcquireProducer: %v", err)
	}
	defer p.Close()

	persistent, err := q.AcquireConsumer()
	if err != nil {
		t.Fatalf("AcquireConsumer persistent: %v", err)
	}

	var done atomix.Bool
	var timedOut atomix.Bool
	var wg sync.WaitGroup

	// Persistent consumer verifies the full stream.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer persistent.Close()
		deadline := time.Now().Add(stressTimeout)
		backoff := iox.Backoff{}
		for expected := 0; expected < total; {
			v, err := persistent.Pop()
			if err != nil {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				backoff.Wait()
				continue
			}
			backoff.Reset()
			if v != expected {
				t.Errorf("persistent pop: got %d, want %d", v, expected)
				return
			}
			expected++
		}
	}()

	// Churners join, verify a short contiguous run, and leave.
	for range numChurners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for !done.Load() {
				c, err := q.AcquireConsumer()
				if err != nil {
					// All slots busy with other churners mid-run.
					backoff.Wait()
					continue
				}
				expected := -1
				for popped := 0; popped < runLength && !done.Load(); {
					v, err := c.Pop()
					if err != nil {
						backoff.Wait()
						continue
					}
					backoff.Reset()
					if expected >= 0 && v != expected {
						t.Errorf("churner pop: got %d, want %d", v, expected)
						done.Store(true)
						break
					}
					expected = v + 1
					popped++
					maybeYield()
				}
				c.Close()
			}
		}()
	}

	deadline := time.Now().Add(stressTimeout)
	backoff := iox.Backoff{}
	for i := range total {
		v := i
		for p.Push(&v) != nil {
			if time.Now().After(deadline) {
				timedOut.Store(true)
				break
			}
			backoff.Wait()
		}
		if timedOut.Load() {
			break
		}
		backoff.Reset()
		maybeYield()
	}
	done.Store(true)

	wg.Wait()
	if timedOut.Load() {
		t.Fatal("stress run timed out")
	}
}

// TestSPMCRegistrationRace has many goroutines fight over a small slot
// pool; at no point may more handles be outstanding than slots exist.
func TestSPMCRegistrationRace(t *testing.T) {
	if fanq.RaceEnabled {
		t.Skip("skip: atomix orderings are invisible to the race detector")
	}

	const (
		maxConsumers = 4
		goroutines   = 16
		rounds       = 2_000
	)
	q := fanq.NewSPMC[int](8, maxConsumers)

	var outstanding atomix.Int64
	var wg sync.WaitGroup

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				c, err := q.AcquireConsumer()
				if err != nil {
					continue
				}
				if n := outstanding.AddAcqRel(1); n > maxConsumers {
					t.Errorf("outstanding consumers: got %d, want <= %d", n, maxConsumers)
				}
				maybeYield()
				outstanding.AddAcqRel(-1)
				c.Close()
			}
		}()
	}

	wg.Wait()
}
