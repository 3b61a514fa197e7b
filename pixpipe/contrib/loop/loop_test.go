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
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/workerpool"
)

// testImage fills a buffer with deterministic pseudo-random bytes.
func testImage(rows, cols int) *pixpipe.Buffer {
	buf := pixpipe.NewBuffer(rows, cols)
	state := uint32(2463534242)
	for i := range buf.Pix {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		buf.Pix[i] = uint8(state)
	}
	return buf
}

// reference applies chain pixel by pixel with no goroutines and explicit
// copies, as the simplest possible statement of the intended result.
func reference(src *pixpipe.Buffer, chain kernel.Chain) *pixpipe.Buffer {
	cur := src.Clone()
	for _, k := range chain {
		next := pixpipe.NewBuffer(cur.Rows, cur.Cols)
		for row := range cur.Rows {
			for col := range cur.Cols {
				next.Set(row, col, k.At(cur, row, col))
			}
		}
		cur = next
	}
	return cur
}

func newTestPool(tb testing.TB, workers int) *workerpool.Pool {
	tb.Helper()
	pool := workerpool.New(workers)
	tb.Cleanup(pool.Close)
	return pool
}

var testSizes = []struct {
	rows, cols int
}{
	{1, 1},
	{1, 17},
	{4, 4},
	{13, 7},
	{64, 97},
}

var testChains = map[string]kernel.Chain{
	"grayscale": {kernel.GrayscaleKernel},
	"hsv":       {kernel.HSVKernel},
	"emboss":    {kernel.EmbossKernel},
	"default":   kernel.DefaultChain,
	"emboss2":   {kernel.EmbossKernel, kernel.HSVKernel, kernel.EmbossKernel},
}

func allStrategies(tb testing.TB) []Strategy {
	var out []Strategy
	for _, workers := range []int{1, 3, 8} {
		pool := newTestPool(tb, workers)
		for _, layout := range []Layout{Nested, Flattened} {
			for _, sched := range []Schedule{Static, Dynamic} {
				for _, chunk := range []int{0, 5} {
					out = append(out, Strategy{Layout: layout, Schedule: sched, Pool: pool, Chunk: chunk})
				}
			}
		}
	}
	return out
}

func TestApplyChainDeterministic(t *testing.T) {
	strategies := allStrategies(t)
	for name, chain := range testChains {
		for _, sz := range testSizes {
			src := testImage(sz.rows, sz.cols)
			want := reference(src, chain)
			t.Run(fmt.Sprintf("%s/%dx%d", name, sz.rows, sz.cols), func(t *testing.T) {
				for _, s := range strategies {
					got := src.Clone()
					s.ApplyChain(got, chain)
					if diff := cmp.Diff(want.Pix, got.Pix); diff != "" {
						t.Fatalf("%v/chunk=%d mismatch (-want +got):\n%s", s, s.Chunk, diff)
					}
				}
			})
		}
	}
}

func TestFusedMatchesApplyChain(t *testing.T) {
	strategies := allStrategies(t)
	src := testImage(31, 23)
	for name, chain := range testChains {
		want := reference(src, chain)
		t.Run(name, func(t *testing.T) {
			for _, s := range strategies {
				got := src.Clone()
				s.Fused(got, chain)
				require.True(t, pixpipe.Equal(want, got), "%v", s)
			}
		})
	}
}

func TestSegments(t *testing.T) {
	segs := segments(kernel.Chain{kernel.HSVKernel, kernel.GrayscaleKernel, kernel.EmbossKernel, kernel.GrayscaleKernel})
	require.Len(t, segs, 3)
	assert.Equal(t, "hsv+grayscale", segs[0].Name)
	assert.True(t, segs[0].InPlaceSafe())
	assert.Equal(t, "emboss", segs[1].Name)
	assert.Equal(t, "grayscale", segs[2].Name)

	assert.Empty(t, segments(nil))
}

func TestUnsafeFusedDiverges(t *testing.T) {
	// Serial, so the divergence comes only from reading already-written
	// neighbours and not from a race.
	src := testImage(16, 16)
	want := reference(src, kernel.DefaultChain)

	got := src.Clone()
	Strategy{}.UnsafeFused(got, kernel.DefaultChain)
	assert.False(t, pixpipe.Equal(want, got), "in-place emboss should read overwritten neighbours")

	// Borders never read a neighbour, so they still agree.
	for col := range 16 {
		assert.Equal(t, want.At(0, col), got.At(0, col))
	}
}

func TestUnsafeFusedPointChain(t *testing.T) {
	chain := kernel.Chain{kernel.HSVKernel, kernel.GrayscaleKernel}
	src := testImage(20, 11)
	want := reference(src, chain)
	for _, s := range allStrategies(t) {
		got := src.Clone()
		s.UnsafeFused(got, chain)
		require.True(t, pixpipe.Equal(want, got), "%v", s)
	}
}

func TestBlackImageScenario(t *testing.T) {
	s := Strategy{Layout: Flattened, Schedule: Dynamic, Pool: newTestPool(t, 4)}

	black := pixpipe.NewBuffer(4, 4)
	gray := black.Clone()
	s.Apply(gray, kernel.GrayscaleKernel)
	assert.True(t, pixpipe.Equal(black, gray))

	embossed := black.Clone()
	s.Apply(embossed, kernel.EmbossKernel)
	for row := range 4 {
		for col := range 4 {
			assert.Equal(t, kernel.Pixel{128, 128, 128}, embossed.At(row, col))
		}
	}
}

func TestEmbossBorderAfterChain(t *testing.T) {
	s := Strategy{Pool: newTestPool(t, 4)}
	buf := testImage(9, 12)
	s.ApplyChain(buf, kernel.DefaultChain)
	for row := range buf.Rows {
		for col := range buf.Cols {
			if row == 0 || col == 0 {
				require.Equal(t, kernel.Pixel{128, 128, 128}, buf.At(row, col), "(%d,%d)", row, col)
			}
		}
	}
}

func TestEmptyBuffer(t *testing.T) {
	s := Strategy{Pool: newTestPool(t, 2)}
	buf := pixpipe.NewBuffer(0, 0)
	s.ApplyChain(buf, kernel.DefaultChain)
	assert.Empty(t, buf.Pix)
}

func TestParse(t *testing.T) {
	l, err := ParseLayout("Collapsed")
	require.NoError(t, err)
	assert.Equal(t, Flattened, l)
	_, err = ParseLayout("spiral")
	assert.ErrorIs(t, err, pixpipe.ErrConfiguration)

	sc, err := ParseSchedule("dynamic")
	require.NoError(t, err)
	assert.Equal(t, Dynamic, sc)
	_, err = ParseSchedule("guided")
	assert.ErrorIs(t, err, pixpipe.ErrConfiguration)

	assert.Equal(t, "flattened/dynamic/1", Strategy{Layout: Flattened, Schedule: Dynamic}.String())
}
