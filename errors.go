// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fanq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Push: the ring is full (backpressure from the slowest consumer)
// For Pop/Peek: the consumer has caught up with the producer
//
// ErrWouldBlock is a control flow signal, not a failure. The caller
// should retry the operation later (with backoff or yield) rather than
// propagating the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClaimed indicates the requested claim is already held.
//
// Returned by AcquireProducer while a producer handle is outstanding,
// and by SPSC AcquireConsumer while a consumer handle is outstanding.
// The claim becomes available again once the holder calls Close.
var ErrClaimed = errors.New("fanq: claim already held")

// ErrNoFreeSlot indicates all broadcast consumer slots are occupied.
//
// Returned by SPMC AcquireConsumer when maxConsumers handles are
// outstanding. A slot becomes available again once some consumer
// calls Close.
var ErrNoFreeSlot = errors.New("fanq: no free consumer slot")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
