// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file contains examples that exercise atomix concurrency
// primitives. These trigger false positives with Go's race detector
// because atomix atomic operations appear as regular memory accesses to
// the detector. The examples are correct; they're excluded from race
// testing.

package fanq_test

import (
	"fmt"

	"code.hybscloud.com/fanq"
)

// ExampleNewSPSC demonstrates a point-to-point queue between one
// producer and one consumer.
func ExampleNewSPSC() {
	q := fanq.NewSPSC[int](8)

	p, _ := q.AcquireProducer()
	defer p.Close()
	c, _ := q.AcquireConsumer()
	defer c.Close()

	for i := 1; i <= 5; i++ {
		v := i * 10
		p.Push(&v)
	}

	for range 5 {
		v, _ := c.Pop()
		fmt.Println(v)
	}

	// Output:
	// 10
	// 20
	// 30
	// 40
	// 50
}

// ExampleNewSPMC demonstrates broadcast fan-out: every consumer sees
// the full stream.
func ExampleNewSPMC() {
	q := fanq.NewSPMC[string](8, 4)

	p, _ := q.AcquireProducer()
	defer p.Close()

	a, _ := q.AcquireConsumer()
	defer a.Close()
	b, _ := q.AcquireConsumer()
	defer b.Close()

	for _, s := range []string{"tick", "tock"} {
		p.Push(&s)
	}

	for range 2 {
		v, _ := a.Pop()
		fmt.Println("a:", v)
	}
	for range 2 {
		v, _ := b.Pop()
		fmt.Println("b:", v)
	}

	// Output:
	// a: tick
	// a: tock
	// b: tick
	// b: tock
}

// ExampleSPMC_AcquireConsumer demonstrates that a late-joining consumer
// starts at the current head and sees only future pushes.
func ExampleSPMC_AcquireConsumer() {
	q := fanq.NewSPMC[int](8, 4)

	p, _ := q.AcquireProducer()
	defer p.Close()

	for _, v := range []int{1, 2} {
		p.Push(&v)
	}

	c, _ := q.AcquireConsumer()
	defer c.Close()

	if _, err := c.Pop(); fanq.IsWouldBlock(err) {
		fmt.Println("no backlog for late joiner")
	}

	v := 3
	p.Push(&v)
	got, _ := c.Pop()
	fmt.Println("first seen:", got)

	// Output:
	// no backlog for late joiner
	// first seen: 3
}
