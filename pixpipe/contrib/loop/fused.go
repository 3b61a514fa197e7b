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

package loop

import (
	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
)

// Fused applies chain with fewer passes than ApplyChain: every run of
// consecutive point kernels is composed into a single pass, and each
// neighbourhood kernel still gets its own shadowed pass. The output is
// identical to ApplyChain.
func (s Strategy) Fused(buf *pixpipe.Buffer, chain kernel.Chain) {
	for _, seg := range segments(chain) {
		s.Apply(buf, seg)
	}
}

// segments groups chain into passes. Runs of point kernels are composed
// into one point kernel.
func segments(chain kernel.Chain) []kernel.Kernel {
	var out []kernel.Kernel
	var run []func(kernel.Pixel) kernel.Pixel
	var names string

	flush := func() {
		if len(run) == 0 {
			return
		}
		fns := run
		out = append(out, kernel.Kernel{
			Name: names,
			Point: func(px kernel.Pixel) kernel.Pixel {
				for _, fn := range fns {
					px = fn(px)
				}
				return px
			},
		})
		run, names = nil, ""
	}

	for _, k := range chain {
		if !k.InPlaceSafe() {
			flush()
			out = append(out, k)
			continue
		}
		if names != "" {
			names += "+"
		}
		names += k.Name
		run = append(run, k.Point)
	}
	flush()
	return out
}

// UnsafeFused runs the entire chain, neighbourhood kernels included, in a
// single flattened in-place pass.
//
// This is a known-incorrect construction kept only as a benchmark
// baseline. A neighbourhood kernel reads pixels that other goroutines (or
// earlier iterations of the same loop) may already have overwritten, so
// the output depends on scheduling and differs from ApplyChain whenever
// the chain is not InPlaceSafe. Timings measured with it are not valid
// comparisons. With more than one goroutine it is also a data race.
func (s Strategy) UnsafeFused(buf *pixpipe.Buffer, chain kernel.Chain) {
	flat := Strategy{Layout: Flattened, Schedule: s.Schedule, Pool: s.Pool, Chunk: s.Chunk}
	flat.forEachPixel(buf.Rows, buf.Cols, func(row, col int) {
		for _, k := range chain {
			buf.Set(row, col, k.At(buf, row, col))
		}
	})
}
