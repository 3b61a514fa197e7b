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
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// Kernel describes one pixel transform and what it reads.
//
// Exactly one of Point and Neighborhood is set. A Point kernel's output at
// (row, col) depends only on the input at (row, col), so it may overwrite
// its input while other goroutines work on other pixels. A Neighborhood
// kernel reads other positions and must run from a snapshot into a shadow
// buffer (see package loop).
type Kernel struct {
	Name string

	Point func(Pixel) Pixel

	// Neighborhood computes the output at (row, col) from src, which is
	// never written during the pass.
	Neighborhood func(src *pixpipe.Buffer, row, col int) Pixel

	// Reach is how many rows above (row, col) Neighborhood reads.
	Reach int
}

// InPlaceSafe reports whether k may mutate its buffer in place under
// parallel execution.
func (k Kernel) InPlaceSafe() bool {
	return k.Neighborhood == nil
}

// At evaluates k at (row, col) reading from src.
func (k Kernel) At(src *pixpipe.Buffer, row, col int) Pixel {
	if k.Point != nil {
		return k.Point(src.At(row, col))
	}
	return k.Neighborhood(src, row, col)
}

// Built-in kernels.
var (
	GrayscaleKernel = Kernel{Name: "grayscale", Point: Grayscale}
	HSVKernel       = Kernel{Name: "hsv", Point: HSV}
	EmbossKernel    = Kernel{Name: "emboss", Neighborhood: embossAt, Reach: 1}
)

func embossAt(src *pixpipe.Buffer, row, col int) Pixel {
	if row < 1 || col < 1 {
		return Pixel{EmbossBias, EmbossBias, EmbossBias}
	}
	return Emboss(src.At(row, col), src.At(row-1, col-1))
}

var registry = map[string]Kernel{
	"grayscale": GrayscaleKernel,
	"gray":      GrayscaleKernel,
	"hsv":       HSVKernel,
	"emboss":    EmbossKernel,
}

// Lookup returns the built-in kernel with the given name.
func Lookup(name string) (Kernel, bool) {
	k, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// Names lists the canonical kernel names in sorted order.
func Names() []string {
	names := lo.Uniq(lo.MapToSlice(registry, func(_ string, k Kernel) string { return k.Name }))
	slices.Sort(names)
	return names
}

// Chain is an ordered list of kernels applied one after the other to the
// same buffer. Later kernels see the output of earlier ones.
type Chain []Kernel

// DefaultChain is HSV, then grayscale, then emboss.
var DefaultChain = Chain{HSVKernel, GrayscaleKernel, EmbossKernel}

// ParseChain parses a comma separated list of kernel names.
// An empty string yields an empty chain.
func ParseChain(s string) (Chain, error) {
	names := lo.Compact(lo.Map(strings.Split(s, ","), func(name string, _ int) string {
		return strings.TrimSpace(name)
	}))
	chain := make(Chain, 0, len(names))
	for _, name := range names {
		k, ok := Lookup(name)
		if !ok {
			return nil, pixpipe.Configf("unknown kernel %q (known: %s)", name, strings.Join(Names(), ", "))
		}
		chain = append(chain, k)
	}
	return chain, nil
}

// Reach returns how many rows above a pixel the whole chain can depend on.
func (c Chain) Reach() int {
	return lo.SumBy(c, func(k Kernel) int { return k.Reach })
}

// InPlaceSafe reports whether every kernel in c is a point kernel.
func (c Chain) InPlaceSafe() bool {
	return lo.EveryBy(c, Kernel.InPlaceSafe)
}

func (c Chain) String() string {
	return strings.Join(lo.Map(c, func(k Kernel, _ int) string { return k.Name }), ",")
}
