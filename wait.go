// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fanq

import (
	"context"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// waitSpinLimit is the number of pause-instruction retries before a
// waiter falls back to adaptive backoff.
const waitSpinLimit = 64

// PushContext repeatedly attempts p.Push until it succeeds or ctx is
// done.
//
// The queue core never blocks; this is the caller-side wait layered on
// top of the non-blocking contract. Retries spin briefly with CPU pause
// instructions, then switch to adaptive backoff. Errors other than
// ErrWouldBlock are returned as-is.
func PushContext[T any](ctx context.Context, p Pusher[T], elem *T) error {
	sw := spin.Wait{}
	backoff := iox.Backoff{}
	for i := 0; ; i++ {
		err := p.Push(elem)
		if err == nil {
			return nil
		}
		if !iox.IsWouldBlock(err) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if i < waitSpinLimit {
			sw.Once()
		} else {
			backoff.Wait()
		}
	}
}

// PopContext repeatedly attempts c.Pop until it yields an element or
// ctx is done.
//
// Retries spin briefly with CPU pause instructions, then switch to
// adaptive backoff. Errors other than ErrWouldBlock are returned as-is.
func PopContext[T any](ctx context.Context, c Popper[T]) (T, error) {
	sw := spin.Wait{}
	backoff := iox.Backoff{}
	for i := 0; ; i++ {
		elem, err := c.Pop()
		if err == nil {
			return elem, nil
		}
		if !iox.IsWouldBlock(err) {
			return elem, err
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		if i < waitSpinLimit {
			sw.Once()
		} else {
			backoff.Wait()
		}
	}
}
