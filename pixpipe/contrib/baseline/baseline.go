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

// Package baseline runs the same three filters with off-the-shelf library
// routines. It is a timing reference for the hand-written kernels, not a
// drop-in replacement: the libraries round, weight and pad differently, so
// outputs are close but not bit-identical.
package baseline

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/codec"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
)

// Options selects which filters run. They always run in the order HSV,
// grayscale, emboss.
type Options struct {
	HSV       bool
	Grayscale bool
	Emboss    bool
}

// All enables every filter.
var All = Options{HSV: true, Grayscale: true, Emboss: true}

// embossKernel compares each pixel's top-left and bottom-right neighbours.
var embossKernel = [9]float64{
	-1, 0, 0,
	0, 0, 0,
	0, 0, 1,
}

// Apply filters a copy of buf and returns it; buf is not modified.
func Apply(buf *pixpipe.Buffer, opts Options) *pixpipe.Buffer {
	out := buf.Clone()
	if out.Pixels() == 0 {
		return out
	}
	if opts.HSV {
		HSV(out)
	}
	if !opts.Grayscale && !opts.Emboss {
		return out
	}

	var img image.Image = codec.ToNRGBA(out)
	if opts.Grayscale {
		img = imaging.Grayscale(img)
	}
	if opts.Emboss {
		img = imaging.Convolve3x3(img, embossKernel, &imaging.ConvolveOptions{Bias: kernel.EmbossBias})
	}
	return codec.FromImage(img)
}

// HSV converts buf in place using go-colorful, packed the way image
// libraries pack 8-bit HSV: hue halved into [0,180), saturation and value
// scaled to [0,255]. Channel 0 is read as red, as a library RGB-to-HSV
// call on BGR data does.
func HSV(buf *pixpipe.Buffer) {
	for i := 0; i+2 < len(buf.Pix); i += pixpipe.Channels {
		c := colorful.Color{
			R: float64(buf.Pix[i]) / 255,
			G: float64(buf.Pix[i+1]) / 255,
			B: float64(buf.Pix[i+2]) / 255,
		}
		h, s, v := c.Hsv()
		buf.Pix[i] = uint8(min(h/2+0.5, 179))
		buf.Pix[i+1] = uint8(s*255 + 0.5)
		buf.Pix[i+2] = uint8(v*255 + 0.5)
	}
}
