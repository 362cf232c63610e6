// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evt

import (
	"errors"
	"time"

	"code.hybscloud.com/iox"
)

// ErrMaxCount indicates Post would exceed the semaphore's maximum
// count. The pending signal is dropped; waiters already have enough
// tokens to drain whatever the signal announced.
var ErrMaxCount = errors.New("evt: semaphore at max count")

// ErrTimeout indicates a bounded Wait expired before a token arrived.
var ErrTimeout = errors.New("evt: wait timed out")

// Semaphore is a bounded counting semaphore.
//
// The typical pairing with a queue: the producer Posts after every
// successful Push, consumers Wait before retrying Pop. The bound keeps
// a fast producer from accumulating an unbounded signal count.
type Semaphore struct {
	tokens chan struct{}
}

// NewSemaphore creates a semaphore with the given maximum count and an
// initial count of zero. Panics if maxCount < 1.
func NewSemaphore(maxCount int) *Semaphore {
	if maxCount < 1 {
		panic("evt: maxCount must be >= 1")
	}
	return &Semaphore{tokens: make(chan struct{}, maxCount)}
}

// Post increments the count, waking one waiter (non-blocking).
// Returns ErrMaxCount if the count is already at its maximum.
func (s *Semaphore) Post() error {
	select {
	case s.tokens <- struct{}{}:
		return nil
	default:
		return ErrMaxCount
	}
}

// TryWait decrements the count if it is positive (non-blocking).
// Returns [iox.ErrWouldBlock] if the count is zero.
func (s *Semaphore) TryWait() error {
	select {
	case <-s.tokens:
		return nil
	default:
		return iox.ErrWouldBlock
	}
}

// Wait decrements the count, blocking until a token arrives.
// A zero timeout blocks indefinitely; otherwise Wait returns
// ErrTimeout if no token arrives within the given duration.
func (s *Semaphore) Wait(timeout time.Duration) error {
	if timeout == 0 {
		<-s.tokens
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.tokens:
		return nil
	case <-timer.C:
		return ErrTimeout
	}
}
