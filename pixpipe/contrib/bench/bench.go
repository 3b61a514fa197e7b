// Copyright 2025 go-pixpipe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bench times whole pipeline invocations.
//
// A Harness is a stopwatch that accumulates wall time and repetitions over
// any number of Run calls until Reset. Report and Compare format results
// for humans.
package bench

import (
	"fmt"
	"time"
)

// Result is the state of a Harness after a Run.
type Result struct {
	Total       time.Duration
	Repetitions int
}

// Average returns Total/Repetitions, or 0 when nothing has run.
func (r Result) Average() time.Duration {
	if r.Repetitions == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Repetitions)
}

// TotalMs returns Total in fractional milliseconds.
func (r Result) TotalMs() float64 {
	return float64(r.Total) / float64(time.Millisecond)
}

// AverageMs returns Average in fractional milliseconds.
func (r Result) AverageMs() float64 {
	return float64(r.Average()) / float64(time.Millisecond)
}

// Harness accumulates timings. The zero value is ready to use; it is not
// safe for concurrent use.
type Harness struct {
	total time.Duration
	reps  int

	// now is replaced in tests.
	now func() time.Time
}

// Run calls fn reps times back to back and adds the elapsed wall time to
// the running total. The first error stops the batch and is returned; a
// failed batch is not accumulated.
func (h *Harness) Run(fn func() error, reps int) (Result, error) {
	if reps < 0 {
		return h.Result(), fmt.Errorf("bench: negative repetitions %d", reps)
	}
	now := h.now
	if now == nil {
		now = time.Now
	}
	start := now()
	for i := range reps {
		if err := fn(); err != nil {
			return h.Result(), fmt.Errorf("repetition %d of %d: %w", i+1, reps, err)
		}
	}
	h.total += now().Sub(start)
	h.reps += reps
	return h.Result(), nil
}

// Result returns the accumulated state.
func (h *Harness) Result() Result {
	return Result{Total: h.total, Repetitions: h.reps}
}

// Total returns the accumulated wall time.
func (h *Harness) Total() time.Duration { return h.total }

// Average returns Total divided by Repetitions, or 0 before any run.
func (h *Harness) Average() time.Duration { return h.Result().Average() }

// Repetitions returns the accumulated repetition count.
func (h *Harness) Repetitions() int { return h.reps }

// Reset zeroes the total and the repetitions.
func (h *Harness) Reset() {
	h.total = 0
	h.reps = 0
}
