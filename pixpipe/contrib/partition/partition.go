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

// Package partition computes how an image's rows are split across a fixed
// number of distributed workers.
//
// Every worker but the last gets floor(rows/N) rows; the last also takes
// the remainder rows%N. The split is a pure function of (rows, N), so every
// worker can compute it locally from the broadcast image properties and all
// of them agree without exchanging the plan.
package partition

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// Part is one worker's share of the image.
type Part struct {
	RowCount   int
	RowOffset  int
	ByteCount  int
	ByteOffset int
}

// Plan is the full split, indexed by worker rank.
type Plan struct {
	RowBytes int
	Parts    []Part
}

// Split divides totalRows rows of rowBytes bytes each across workers.
// It panics if workers <= 0, totalRows < 0 or rowBytes < 0; those are
// programming errors, not runtime conditions.
func Split(totalRows, rowBytes, workers int) Plan {
	if workers <= 0 {
		panic(fmt.Sprintf("partition: worker count %d must be positive", workers))
	}
	if totalRows < 0 || rowBytes < 0 {
		panic(fmt.Sprintf("partition: negative size (rows=%d, rowBytes=%d)", totalRows, rowBytes))
	}

	per := totalRows / workers
	rest := totalRows % workers

	parts := make([]Part, workers)
	rowOffset := 0
	for i := range parts {
		rows := per
		if i == workers-1 {
			rows += rest
		}
		parts[i] = Part{
			RowCount:   rows,
			RowOffset:  rowOffset,
			ByteCount:  rows * rowBytes,
			ByteOffset: rowOffset * rowBytes,
		}
		rowOffset += rows
	}
	return Plan{RowBytes: rowBytes, Parts: parts}
}

// ForProperties splits the image described by props across workers.
func ForProperties(props pixpipe.Properties, workers int) Plan {
	return Split(props.Rows, props.RowBytes(), workers)
}

// Workers returns the number of parts.
func (p Plan) Workers() int {
	return len(p.Parts)
}

// Part returns rank's share.
func (p Plan) Part(rank int) Part {
	return p.Parts[rank]
}

// TotalRows returns the sum of all row counts.
func (p Plan) TotalRows() int {
	return lo.SumBy(p.Parts, func(part Part) int { return part.RowCount })
}

// TotalBytes returns the sum of all byte counts.
func (p Plan) TotalBytes() int {
	return lo.SumBy(p.Parts, func(part Part) int { return part.ByteCount })
}

// HasEmpty reports whether some worker would receive no rows, which
// happens when there are more workers than rows.
func (p Plan) HasEmpty() bool {
	return lo.SomeBy(p.Parts, func(part Part) bool { return part.RowCount == 0 })
}

// Counts returns the per-rank byte counts, in scatter/gather form.
func (p Plan) Counts() []int {
	return lo.Map(p.Parts, func(part Part, _ int) int { return part.ByteCount })
}

// Displs returns the per-rank byte offsets, in scatter/gather form.
func (p Plan) Displs() []int {
	return lo.Map(p.Parts, func(part Part, _ int) int { return part.ByteOffset })
}

// Halo describes a scatter that also ships up to Depth rows above every
// part, so kernels that read upward see their true neighbours across
// partition seams. Rows[i] is how many leading rows of rank i's received
// buffer are halo and must be dropped before gathering.
type Halo struct {
	Depth  int
	Rows   []int
	Counts []int
	Displs []int
}

// Halo returns the scatter layout with depth rows of overlap.
// A depth of zero yields the plain Counts and Displs.
func (p Plan) Halo(depth int) Halo {
	depth = max(depth, 0)
	h := Halo{
		Depth:  depth,
		Rows:   make([]int, len(p.Parts)),
		Counts: make([]int, len(p.Parts)),
		Displs: make([]int, len(p.Parts)),
	}
	for i, part := range p.Parts {
		extra := min(depth, part.RowOffset)
		h.Rows[i] = extra
		h.Counts[i] = part.ByteCount + extra*p.RowBytes
		h.Displs[i] = part.ByteOffset - extra*p.RowBytes
	}
	return h
}

func (p Plan) String() string {
	return fmt.Sprintf("plan(%d workers, rows %v)", len(p.Parts),
		lo.Map(p.Parts, func(part Part, _ int) int { return part.RowCount }))
}
