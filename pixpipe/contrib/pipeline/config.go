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

// Package pipeline runs a filter chain over an image, either in one process
// or split by rows across a group of ranks.
//
// A distributed invocation is, per rank:
//
//	decode (root) → broadcast properties → partition → barrier → scatter
//	→ transform → gather → finalize (root)
//
// Every rank computes the same partition plan from the broadcast
// properties, so the plan itself is never sent. Any failure on any rank
// aborts the whole group; no partial image is ever shown or saved.
package pipeline

import (
	"log/slog"
	"path/filepath"

	"github.com/ajroetker/go-pixpipe/pixpipe"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/codec"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/kernel"
	"github.com/ajroetker/go-pixpipe/pixpipe/contrib/loop"
)

// Variant names, used in output file names and display titles.
const (
	VariantSimple     = "simple"
	VariantMPI        = "mpi"
	VariantSingleLoop = "mpi_single_loop"
	VariantBaseline   = "baseline"
)

// Config describes one invocation.
type Config struct {
	// Input is the image path, read by the root only.
	Input string

	// OutputDir receives resulting_image_<Variant>.png when Save is set.
	OutputDir string

	Chain    kernel.Chain
	Strategy loop.Strategy

	// Fused composes consecutive point kernels into single passes.
	Fused bool

	// Unsafe runs the whole chain, neighbourhood kernels included, in one
	// in-place pass. Its output depends on scheduling; it exists only to be
	// timed against the correct variants.
	Unsafe bool

	// Halo ships the rows above each partition that the chain's
	// neighbourhood kernels read, so results do not depend on the number
	// of ranks. Without it the first row of every partition is treated as
	// an image border.
	Halo bool

	Show bool
	Save bool

	// Variant defaults per entry point.
	Variant string

	Codec   codec.Codec
	Display codec.Display
	Logger  *slog.Logger
}

func (c Config) withDefaults(variant string) Config {
	if c.Chain == nil {
		c.Chain = kernel.DefaultChain
	}
	if c.Variant == "" {
		c.Variant = variant
		if variant == VariantMPI && (c.Fused || c.Unsafe) {
			c.Variant = VariantSingleLoop
		}
	}
	if c.Codec == nil {
		c.Codec = codec.Imaging{}
	}
	if c.Display == nil {
		c.Display = codec.NopDisplay{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// OutputPath is where Save writes the result.
func (c Config) OutputPath() string {
	return filepath.Join(c.OutputDir, "resulting_image_"+c.Variant+".png")
}

func (c Config) transform(buf *pixpipe.Buffer) {
	switch {
	case c.Unsafe:
		c.Strategy.UnsafeFused(buf, c.Chain)
	case c.Fused:
		c.Strategy.Fused(buf, c.Chain)
	default:
		c.Strategy.ApplyChain(buf, c.Chain)
	}
}

// finalize shows and saves the finished image. Only the root calls it.
func (c Config) finalize(img *pixpipe.Buffer) error {
	if c.Show {
		c.Display.Show(img, "Final Image "+c.Variant)
	}
	if c.Save {
		path := c.OutputPath()
		if err := c.Codec.Encode(img, path); err != nil {
			return err
		}
		c.Logger.Debug("image saved", "path", path)
	}
	return nil
}
