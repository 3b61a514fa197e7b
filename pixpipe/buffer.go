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

package pixpipe

import (
	"bytes"
	"fmt"
)

// Channels is the number of interleaved 8-bit samples per pixel.
const Channels = 3

// TypeU8C3 is the pixel-type code for three unsigned 8-bit channels.
// It matches the code used by the image library the benchmark was first
// written against, so Properties can be compared across implementations.
const TypeU8C3 = 16

// Properties describes an image well enough for every worker to size its
// local buffers without looking at pixel data. It is computed once by the
// coordinator and broadcast verbatim.
type Properties struct {
	Rows     int
	Cols     int
	Type     int
	Channels int
}

// RowBytes returns the number of bytes in one image row.
func (p Properties) RowBytes() int {
	return p.Cols * p.Channels
}

// Bytes returns the size of the whole pixel buffer in bytes.
func (p Properties) Bytes() int {
	return p.Rows * p.RowBytes()
}

// Validate reports a ConfigurationError if p does not describe a dense
// three-channel 8-bit image.
func (p Properties) Validate() error {
	switch {
	case p.Rows < 0 || p.Cols < 0:
		return Configf("negative image dimensions %dx%d", p.Cols, p.Rows)
	case p.Channels != Channels:
		return Configf("image has %d channels, want %d", p.Channels, Channels)
	case p.Type != TypeU8C3:
		return Configf("unsupported pixel type %d, want %d", p.Type, TypeU8C3)
	}
	return nil
}

// String implements fmt.Stringer.
func (p Properties) String() string {
	return fmt.Sprintf("%dx%dx%d(type %d)", p.Cols, p.Rows, p.Channels, p.Type)
}

// Buffer is a dense row-major pixel buffer with three interleaved 8-bit
// channels per pixel. Channel 0 is blue-like, 1 green-like and 2 red-like;
// kernels address channels by index, never by name.
//
// A Buffer has exactly one owner at a time. Handing it to another worker
// either copies the bytes (Clone) or gives the slice away (Swap).
type Buffer struct {
	Pix  []uint8
	Rows int
	Cols int
}

// NewBuffer allocates a zeroed buffer of the given size.
// Non-positive dimensions yield an empty buffer.
func NewBuffer(rows, cols int) *Buffer {
	if rows <= 0 || cols <= 0 {
		return &Buffer{}
	}
	return &Buffer{
		Pix:  make([]uint8, rows*cols*Channels),
		Rows: rows,
		Cols: cols,
	}
}

// FromPix wraps pix as a rows×cols buffer without copying. The caller gives
// up ownership of pix.
func FromPix(pix []uint8, rows, cols int) (*Buffer, error) {
	if rows < 0 || cols < 0 {
		return nil, Configf("negative buffer dimensions %dx%d", cols, rows)
	}
	if want := rows * cols * Channels; len(pix) != want {
		return nil, Configf("buffer holds %d bytes, %dx%d image needs %d", len(pix), cols, rows, want)
	}
	return &Buffer{Pix: pix, Rows: rows, Cols: cols}, nil
}

// Properties returns the broadcastable description of b.
func (b *Buffer) Properties() Properties {
	return Properties{Rows: b.Rows, Cols: b.Cols, Type: TypeU8C3, Channels: Channels}
}

// Pixels returns Rows*Cols.
func (b *Buffer) Pixels() int {
	return b.Rows * b.Cols
}

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int {
	return b.Cols * Channels
}

// Offset returns the index of channel 0 of the pixel at (row, col).
func (b *Buffer) Offset(row, col int) int {
	return (row*b.Cols + col) * Channels
}

// At returns the three channels of the pixel at (row, col).
// Out-of-range coordinates return zeros.
func (b *Buffer) At(row, col int) [Channels]uint8 {
	if row < 0 || row >= b.Rows || col < 0 || col >= b.Cols {
		return [Channels]uint8{}
	}
	i := b.Offset(row, col)
	return [Channels]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2]}
}

// Set stores px at (row, col). Out-of-range coordinates are ignored.
func (b *Buffer) Set(row, col int, px [Channels]uint8) {
	if row < 0 || row >= b.Rows || col < 0 || col >= b.Cols {
		return
	}
	i := b.Offset(row, col)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = px[0], px[1], px[2]
}

// Row returns the mutable bytes of row y, or nil if y is out of range.
func (b *Buffer) Row(y int) []uint8 {
	if y < 0 || y >= b.Rows {
		return nil
	}
	start := y * b.Stride()
	return b.Pix[start : start+b.Stride()]
}

// RowRange returns a view of rows [start, end) sharing b's storage.
// The view must not outlive a Swap on b.
func (b *Buffer) RowRange(start, end int) *Buffer {
	start = max(start, 0)
	end = min(end, b.Rows)
	if end <= start {
		return &Buffer{Cols: b.Cols}
	}
	return &Buffer{
		Pix:  b.Pix[start*b.Stride() : end*b.Stride()],
		Rows: end - start,
		Cols: b.Cols,
	}
}

// Clone returns a deep copy of b in freshly allocated storage.
func (b *Buffer) Clone() *Buffer {
	clone := &Buffer{
		Pix:  make([]uint8, len(b.Pix)),
		Rows: b.Rows,
		Cols: b.Cols,
	}
	copy(clone.Pix, b.Pix)
	return clone
}

// Fill sets every pixel to px.
func (b *Buffer) Fill(px [Channels]uint8) {
	for i := 0; i < len(b.Pix); i += Channels {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2] = px[0], px[1], px[2]
	}
}

// Swap exchanges the storage of b and other. Both must have the same shape.
// It is how a shadow buffer replaces the original after a barrier.
func (b *Buffer) Swap(other *Buffer) {
	if b.Rows != other.Rows || b.Cols != other.Cols {
		panic(fmt.Sprintf("pixpipe: Swap of %dx%d with %dx%d", b.Cols, b.Rows, other.Cols, other.Rows))
	}
	b.Pix, other.Pix = other.Pix, b.Pix
}

// Equal reports whether a and b have the same shape and bytes.
func Equal(a, b *Buffer) bool {
	return a.Rows == b.Rows && a.Cols == b.Cols && bytes.Equal(a.Pix, b.Pix)
}
