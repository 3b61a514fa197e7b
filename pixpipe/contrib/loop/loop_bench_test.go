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
	"testing"

	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
)

var benchSizes = []struct {
	name       string
	rows, cols int
}{
	{"256x256", 256, 256},
	{"1080p", 1080, 1920},
}

func BenchmarkApplyChain(b *testing.B) {
	pool := newTestPool(b, 0)
	for _, size := range benchSizes {
		src := testImage(size.rows, size.cols)
		for _, layout := range []Layout{Nested, Flattened} {
			for _, sched := range []Schedule{Static, Dynamic} {
				s := Strategy{Layout: layout, Schedule: sched, Pool: pool}
				b.Run(size.name+"/"+layout.String()+"/"+sched.String(), func(b *testing.B) {
					buf := src.Clone()
					b.ReportAllocs()
					b.SetBytes(int64(len(buf.Pix)))
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						copy(buf.Pix, src.Pix)
						s.ApplyChain(buf, kernel.DefaultChain)
					}
				})
			}
		}
	}
}

func BenchmarkFused(b *testing.B) {
	pool := newTestPool(b, 0)
	for _, size := range benchSizes {
		src := testImage(size.rows, size.cols)
		s := Strategy{Layout: Nested, Schedule: Dynamic, Pool: pool}
		b.Run(size.name, func(b *testing.B) {
			buf := src.Clone()
			b.ReportAllocs()
			b.SetBytes(int64(len(buf.Pix)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				copy(buf.Pix, src.Pix)
				s.Fused(buf, kernel.DefaultChain)
			}
		})
	}
}
