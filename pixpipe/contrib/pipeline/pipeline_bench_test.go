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

package pipeline

import (
	"fmt"
	"testing"

	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/loop"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/workerpool"
)

func benchConfig(b *testing.B, rows, cols int) Config {
	pool := workerpool.New(0)
	b.Cleanup(pool.Close)
	return Config{
		Input:    "in.png",
		Strategy: loop.Strategy{Layout: loop.Nested, Schedule: loop.Static, Pool: pool},
		Codec:    newMemCodec(map[string]*pixpipe.Buffer{"in.png": testImage(rows, cols)}),
	}
}

func BenchmarkSimple(b *testing.B) {
	cfg := benchConfig(b, 480, 640)
	b.SetBytes(480 * 640 * 3)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Simple(cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLocal(b *testing.B) {
	for _, workers := range []int{1, 2, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			cfg := benchConfig(b, 480, 640)
			cfg.Halo = true
			b.SetBytes(480 * 640 * 3)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Local(workers, cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
