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

// Package loop applies pixel kernels across a buffer with a chosen loop
// structure and scheduling policy.
//
// The result never depends on how goroutines interleave: point kernels
// write only the pixel they read, and neighbourhood kernels read a
// snapshot and write a shadow buffer that replaces the original after the
// pass (the pool call returning is the barrier).
//
//	s := loop.Strategy{Layout: loop.Flattened, Schedule: loop.Dynamic, Pool: pool}
//	s.ApplyChain(buf, kernel.DefaultChain)
package loop

import (
	"fmt"
	"strings"

	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/workerpool"
)

// Layout selects the shape of the iteration space.
type Layout int

const (
	// Nested iterates rows, and within each row every column.
	Nested Layout = iota

	// Flattened iterates one linear index over rows*cols pixels and derives
	// (row, col) = (idx / cols, idx % cols). It only changes scheduling
	// granularity; results are identical to Nested.
	Flattened
)

func (l Layout) String() string {
	switch l {
	case Nested:
		return "nested"
	case Flattened:
		return "flattened"
	default:
		return "unknown"
	}
}

// ParseLayout parses "nested" or "flattened" (alias "collapsed").
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nested", "":
		return Nested, nil
	case "flattened", "flat", "collapsed":
		return Flattened, nil
	}
	return Nested, pixpipe.Configf("unknown loop layout %q", s)
}

// Schedule selects how the iteration space is handed to goroutines.
type Schedule int

const (
	// Static gives each goroutine one contiguous chunk up front.
	Static Schedule = iota

	// Dynamic lets goroutines pull small chunks from a shared counter.
	Dynamic
)

func (s Schedule) String() string {
	switch s {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// ParseSchedule parses "static" or "dynamic".
func ParseSchedule(s string) (Schedule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "":
		return Static, nil
	case "dynamic":
		return Dynamic, nil
	}
	return Static, pixpipe.Configf("unknown schedule %q", s)
}

// Strategy is one concurrency configuration for applying kernels.
// The zero value is a serial nested loop.
type Strategy struct {
	Layout   Layout
	Schedule Schedule

	// Pool runs the loop. nil, or a pool of one goroutine, runs serially.
	Pool *workerpool.Pool

	// Chunk is the dynamic schedule's piece size, in rows for Nested and
	// in pixels for Flattened. Zero selects one row's worth.
	Chunk int
}

func (s Strategy) String() string {
	return fmt.Sprintf("%s/%s/%d", s.Layout, s.Schedule, s.Pool.NumWorkers())
}

// forEachPixel calls fn(row, col) for every pixel of a rows×cols image,
// distributed according to s.
func (s Strategy) forEachPixel(rows, cols int, fn func(row, col int)) {
	if rows <= 0 || cols <= 0 {
		return
	}

	switch s.Layout {
	case Flattened:
		body := func(start, end int) {
			for idx := start; idx < end; idx++ {
				fn(idx/cols, idx%cols)
			}
		}
		s.run(rows*cols, cols, body)
	default:
		body := func(start, end int) {
			for row := start; row < end; row++ {
				for col := range cols {
					fn(row, col)
				}
			}
		}
		s.run(rows, 1, body)
	}
}

func (s Strategy) run(n, defaultChunk int, body func(start, end int)) {
	if s.Schedule == Dynamic {
		chunk := s.Chunk
		if chunk <= 0 {
			chunk = defaultChunk
		}
		s.Pool.Dynamic(n, chunk, body)
		return
	}
	s.Pool.Static(n, body)
}

// Apply runs k over every pixel of buf.
//
// Point kernels overwrite buf in place. Neighbourhood kernels read only
// from buf and write only to a shadow copy, which replaces
// buf's storage once every goroutine has finished.
func (s Strategy) Apply(buf *pixpipe.Buffer, k kernel.Kernel) {
	if k.InPlaceSafe() {
		s.forEachPixel(buf.Rows, buf.Cols, func(row, col int) {
			i := buf.Offset(row, col)
			px := k.Point(kernel.Pixel{buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2]})
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = px[0], px[1], px[2]
		})
		return
	}

	shadow := buf.Clone()
	s.forEachPixel(buf.Rows, buf.Cols, func(row, col int) {
		shadow.Set(row, col, k.Neighborhood(buf, row, col))
	})
	buf.Swap(shadow)
}

// ApplyChain runs each kernel of chain as its own full pass, in order.
func (s Strategy) ApplyChain(buf *pixpipe.Buffer, chain kernel.Chain) {
	for _, k := range chain {
		s.Apply(buf, k)
	}
}
