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

// Package codec loads and stores pixel buffers as image files.
//
// Buffers use BGR channel order; the conversions here are the only place
// that order meets the RGBA world of image.Image.
package codec

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// Codec decodes and encodes whole images.
type Codec interface {
	// Decode loads path. Unreadable or empty images yield a
	// *pixpipe.ImageLoadError.
	Decode(path string) (*pixpipe.Buffer, pixpipe.Properties, error)

	// Encode writes buf to path; the format follows the file extension.
	Encode(buf *pixpipe.Buffer, path string) error
}

// Imaging is the Codec backed by github.com/disintegration/imaging.
// It reads PNG, JPEG, GIF, TIFF and BMP and applies EXIF orientation.
type Imaging struct{}

var _ Codec = Imaging{}

func (Imaging) Decode(path string) (*pixpipe.Buffer, pixpipe.Properties, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, pixpipe.Properties{}, &pixpipe.ImageLoadError{Path: path, Err: err}
	}
	return decoded(path, img)
}

func decoded(path string, img image.Image) (*pixpipe.Buffer, pixpipe.Properties, error) {
	if img.Bounds().Empty() {
		return nil, pixpipe.Properties{}, &pixpipe.ImageLoadError{Path: path}
	}
	buf := FromImage(img)
	return buf, buf.Properties(), nil
}

func (Imaging) Encode(buf *pixpipe.Buffer, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := imaging.Save(ToNRGBA(buf), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// FromImage copies img into a new buffer, dropping alpha.
func FromImage(img image.Image) *pixpipe.Buffer {
	src := imaging.Clone(img)
	b := src.Bounds()
	buf := pixpipe.NewBuffer(b.Dy(), b.Dx())
	for y := range buf.Rows {
		in := src.Pix[y*src.Stride : y*src.Stride+buf.Cols*4]
		out := buf.Row(y)
		for x := range buf.Cols {
			out[x*3+0] = in[x*4+2]
			out[x*3+1] = in[x*4+1]
			out[x*3+2] = in[x*4+0]
		}
	}
	return buf
}

// ToNRGBA copies buf into a new opaque image.
func ToNRGBA(buf *pixpipe.Buffer) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, buf.Cols, buf.Rows))
	for y := range buf.Rows {
		in := buf.Row(y)
		out := dst.Pix[y*dst.Stride : y*dst.Stride+buf.Cols*4]
		for x := range buf.Cols {
			out[x*4+0] = in[x*3+2]
			out[x*4+1] = in[x*3+1]
			out[x*4+2] = in[x*3+0]
			out[x*4+3] = 0xff
		}
	}
	return dst
}
