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

package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// rgb builds a Pixel from red, green, blue in the usual reading order.
func rgb(r, g, b uint8) Pixel {
	return Pixel{b, g, r}
}

func TestGrayscale(t *testing.T) {
	tests := []struct {
		name string
		in   Pixel
		want uint8
	}{
		{"black", rgb(0, 0, 0), 0},
		{"white", rgb(255, 255, 255), 255},
		{"red", rgb(255, 0, 0), 54},    // 53.55
		{"green", rgb(0, 255, 0), 184}, // 183.6
		{"blue", rgb(0, 0, 255), 18},   // 17.85
		{"mixed", rgb(10, 20, 30), 19}, // 2.1 + 14.4 + 2.1
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Grayscale(tc.in)
			assert.Equal(t, Pixel{tc.want, tc.want, tc.want}, got)
		})
	}
}

func TestGrayscaleIdempotent(t *testing.T) {
	for r := 0; r < 256; r += 5 {
		for g := 0; g < 256; g += 7 {
			for b := 0; b < 256; b += 11 {
				once := Grayscale(rgb(uint8(r), uint8(g), uint8(b)))
				twice := Grayscale(once)
				if once != twice {
					t.Fatalf("Grayscale not idempotent for (%d,%d,%d): %v then %v", r, g, b, once, twice)
				}
			}
		}
	}
}

func TestHSV(t *testing.T) {
	tests := []struct {
		name string
		in   Pixel
		want Pixel
	}{
		{"black", rgb(0, 0, 0), Pixel{0, 0, 0}},
		{"white", rgb(255, 255, 255), Pixel{0, 0, 255}},
		{"gray", rgb(128, 128, 128), Pixel{0, 0, 128}},
		{"red", rgb(255, 0, 0), Pixel{0, 255, 255}},
		{"yellow", rgb(255, 255, 0), Pixel{60, 255, 255}},
		{"green", rgb(0, 255, 0), Pixel{120, 255, 255}},
		{"cyan", rgb(0, 255, 255), Pixel{180, 255, 255}},
		{"blue", rgb(0, 0, 255), Pixel{240, 255, 255}},
		// Hues above 255 degrees saturate.
		{"magenta", rgb(255, 0, 255), Pixel{255, 255, 255}},
		// Red max with negative (g-b) wraps through +360.
		{"rose", rgb(255, 0, 128), Pixel{255, 255, 255}},
		{"half_green", rgb(0, 128, 0), Pixel{120, 255, 128}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HSV(tc.in))
		})
	}
}

func TestHSVRange(t *testing.T) {
	// Exhaustive over a coarse grid; the property is that nothing wraps.
	for r := 0; r < 256; r += 3 {
		for g := 0; g < 256; g += 3 {
			for b := 0; b < 256; b += 3 {
				in := rgb(uint8(r), uint8(g), uint8(b))
				out := HSV(in)
				maxC := max(r, g, b)
				// Value is the max channel, scaled back.
				if int(out[2]) > maxC || int(out[2]) < maxC-1 {
					t.Fatalf("HSV(%v) value = %d, want about %d", in, out[2], maxC)
				}
				if maxC == min(r, g, b) && out[0] != 0 {
					t.Fatalf("HSV(%v) achromatic hue = %d, want 0", in, out[0])
				}
			}
		}
	}
}

func TestEmboss(t *testing.T) {
	tests := []struct {
		name       string
		p, topLeft Pixel
		want       uint8
	}{
		{"equal", rgb(10, 20, 30), rgb(10, 20, 30), 128},
		{"small", rgb(10, 20, 30), rgb(15, 20, 30), 133},
		{"negative_diff", rgb(15, 20, 30), rgb(10, 20, 30), 133},
		{"max_channel", rgb(0, 0, 0), rgb(1, 50, 7), 178},
		{"clamped", rgb(0, 0, 0), rgb(255, 0, 0), 255},
		{"just_below_clamp", rgb(0, 0, 0), rgb(127, 0, 0), 255},
		{"at_clamp", rgb(0, 0, 0), rgb(126, 0, 0), 254},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, Pixel{tc.want, tc.want, tc.want}, Emboss(tc.p, tc.topLeft))
		})
	}
}

func TestEmbossBorder(t *testing.T) {
	src := pixpipe.NewBuffer(3, 3)
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 17)
	}
	gray := Pixel{EmbossBias, EmbossBias, EmbossBias}
	for row := range 3 {
		for col := range 3 {
			got := EmbossKernel.At(src, row, col)
			if row == 0 || col == 0 {
				assert.Equal(t, gray, got, "(%d,%d)", row, col)
			} else {
				assert.Equal(t, Emboss(src.At(row, col), src.At(row-1, col-1)), got)
			}
		}
	}
}

func TestKernelDescriptors(t *testing.T) {
	assert.True(t, GrayscaleKernel.InPlaceSafe())
	assert.True(t, HSVKernel.InPlaceSafe())
	assert.False(t, EmbossKernel.InPlaceSafe())

	assert.Equal(t, 1, DefaultChain.Reach())
	assert.False(t, DefaultChain.InPlaceSafe())
	assert.True(t, Chain{HSVKernel, GrayscaleKernel}.InPlaceSafe())
	assert.Equal(t, "hsv,grayscale,emboss", DefaultChain.String())

	src := pixpipe.NewBuffer(1, 1)
	src.Set(0, 0, rgb(255, 0, 0))
	assert.Equal(t, Grayscale(rgb(255, 0, 0)), GrayscaleKernel.At(src, 0, 0))
}

func TestParseChain(t *testing.T) {
	chain, err := ParseChain(" HSV, gray ,emboss,")
	require.NoError(t, err)
	assert.Equal(t, "hsv,grayscale,emboss", chain.String())

	empty, err := ParseChain("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseChain("hsv,sepia")
	assert.ErrorIs(t, err, pixpipe.ErrConfiguration)
	assert.Contains(t, err.Error(), "sepia")

	assert.Equal(t, []string{"emboss", "grayscale", "hsv"}, Names())
}
