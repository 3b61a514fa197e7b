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
	"math"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// Pixel is one pixel's channel triple. Index 0 is blue-like, 1 green-like,
// 2 red-like.
type Pixel = [pixpipe.Channels]uint8

// Channel indices used by the transforms.
const (
	B = 0
	G = 1
	R = 2
)

// Luminosity weights for Grayscale. They sum to one and are not renormalized.
const (
	LumaR = 0.21
	LumaG = 0.72
	LumaB = 0.07
)

// EmbossBias is added to the neighbour difference; it is also the flat
// value of pixels that have no top-left neighbour.
const EmbossBias = 128

// Grayscale returns (g, g, g) with g = round(0.21*R + 0.72*G + 0.07*B).
func Grayscale(p Pixel) Pixel {
	g := math.Round(LumaR*float64(p[R]) + LumaG*float64(p[G]) + LumaB*float64(p[B]))
	gray := uint8(min(g, 255))
	return Pixel{gray, gray, gray}
}

// HSV converts the pixel to hue, saturation and value and packs the result
// back into 8 bits per channel:
//
//	channel 0 = hue in degrees, truncated and saturated at 255
//	channel 1 = saturation * 255, truncated
//	channel 2 = value * 255, truncated
//
// The packing is lossy (hues above 255 degrees collapse to 255) and is kept
// bit-for-bit so results stay comparable across implementations.
func HSV(p Pixel) Pixel {
	r := float32(p[R]) / 255
	g := float32(p[G]) / 255
	b := float32(p[B]) / 255

	cmax := max(r, g, b)
	cmin := min(r, g, b)
	delta := cmax - cmin

	var hue float32
	if delta != 0 {
		switch cmax {
		case r:
			hue = 60 * float32(math.Mod(float64((g-b)/delta), 6))
		case g:
			hue = 60 * ((b-r)/delta + 2)
		default:
			hue = 60 * ((r-g)/delta + 4)
		}
	}
	if hue < 0 {
		hue += 360
	}

	var saturation float32
	if cmax != 0 {
		saturation = delta / cmax
	}

	return Pixel{
		uint8(min(hue, 255)),
		uint8(saturation * 255),
		uint8(cmax * 255),
	}
}

// Emboss returns (g, g, g) where g = clamp(d + 128, 0, 255) and d is the
// largest absolute per-channel difference between p and its top-left
// neighbour.
func Emboss(p, topLeft Pixel) Pixel {
	var diff int
	for c := range pixpipe.Channels {
		d := int(topLeft[c]) - int(p[c])
		if d < 0 {
			d = -d
		}
		diff = max(diff, d)
	}
	gray := uint8(min(max(diff+EmbossBias, 0), 255))
	return Pixel{gray, gray, gray}
}
