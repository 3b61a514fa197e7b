// Copyright 2025 The go-pixpipe Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides the persistent goroutine pool that runs the
// parallel pixel loops. A Pool is created once per worker process and reused
// for every kernel pass of every repetition, so a benchmark measures the
// loops and not goroutine start-up.
//
// Two scheduling policies are offered:
//
//	pool.Static(n, fn)         // one contiguous chunk per goroutine, assigned up front
//	pool.Dynamic(n, chunk, fn) // goroutines pull chunk-sized pieces as they finish
//
// Both block until every index in [0, n) has been processed exactly once,
// which makes each call a full barrier. A nil Pool, a closed Pool or a Pool
// with one goroutine runs fn serially in the caller.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of goroutines fed through a channel.
type Pool struct {
	numWorkers int
	workC      chan task
	closeOnce  sync.Once
	closed     atomic.Bool
}

type task struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New starts a pool with numWorkers goroutines.
// If numWorkers <= 0, GOMAXPROCS is used.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan task, numWorkers*2),
	}
	// A single worker never dispatches, so no goroutine is needed.
	if numWorkers > 1 {
		for range numWorkers {
			go p.worker()
		}
	}
	return p
}

func (p *Pool) worker() {
	for t := range p.workC {
		t.fn()
		t.barrier.Done()
	}
}

// NumWorkers returns the number of goroutines, or 1 for a nil pool.
func (p *Pool) NumWorkers() int {
	if p == nil {
		return 1
	}
	return p.numWorkers
}

// Close stops the goroutines after pending work completes. Safe to call
// more than once. Later calls to Static and Dynamic run serially.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// serial reports whether work of n items should run in the caller.
func (p *Pool) serial(n int) bool {
	return p == nil || p.numWorkers == 1 || n == 1 || p.closed.Load()
}

// Static splits [0, n) into NumWorkers contiguous, nearly equal chunks and
// hands one to each goroutine. fn receives [start, end).
func (p *Pool) Static(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if p.serial(n) {
		fn(0, n)
		return
	}

	workers := min(p.numWorkers, n)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for i := range workers {
		start := i * chunk
		if start >= n {
			break
		}
		end := min(start+chunk, n)
		wg.Add(1)
		p.workC <- task{
			fn:      func() { fn(start, end) },
			barrier: &wg,
		}
	}
	wg.Wait()
}

// Dynamic lets every goroutine repeatedly claim the next chunk-sized piece
// of [0, n) with an atomic counter until none are left. fn receives
// [start, end). A chunk <= 0 is treated as 1.
func (p *Pool) Dynamic(n, chunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	chunk = max(chunk, 1)
	if p.serial(n) {
		for start := 0; start < n; start += chunk {
			fn(start, min(start+chunk, n))
		}
		return
	}

	pieces := (n + chunk - 1) / chunk
	workers := min(p.numWorkers, pieces)

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- task{
			fn: func() {
				for {
					start := int(next.Add(int64(chunk)) - int64(chunk))
					if start >= n {
						return
					}
					fn(start, min(start+chunk, n))
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}
