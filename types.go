// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fanq

// Pusher is the producer-side interface shared by all producer handles.
//
// The element is passed by pointer to avoid copying large structs at the
// call boundary. The queue stores a copy of the pointed-to value, so the
// original can be modified after Push returns.
type Pusher[T any] interface {
	// Push adds an element to the queue (non-blocking).
	// Returns nil on success, ErrWouldBlock if the ring is full.
	Push(elem *T) error
}

// Popper is the consumer-side interface shared by all consumer handles.
type Popper[T any] interface {
	// Pop removes and returns the next element (non-blocking).
	// Returns (zero-value, ErrWouldBlock) if no element is ready.
	Pop() (T, error)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
