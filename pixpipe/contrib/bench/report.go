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

package bench

import (
	"cmp"
	"io"
	"slices"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Entry is one named benchmark result.
type Entry struct {
	Name   string
	Result Result

	// Pixels processed per repetition, for throughput. Zero omits it.
	Pixels int

	// Invalid marks strategies whose output is known to be wrong; their
	// timings are shown but never ranked.
	Invalid bool
}

// MegapixelsPerSecond returns the processing rate, or 0 if unknown.
func (e Entry) MegapixelsPerSecond() float64 {
	if e.Pixels == 0 || e.Result.Total <= 0 {
		return 0
	}
	return float64(e.Pixels) * float64(e.Result.Repetitions) / e.Result.Total.Seconds() / 1e6
}

// Report writes one entry in the classic two-line form.
func Report(w io.Writer, e Entry) {
	printer.Fprintf(w, "%s:\n", e.Name)
	printer.Fprintf(w, "Total Duration: %.3fms\n", e.Result.TotalMs())
	printer.Fprintf(w, "Average Duration: %.3fms", e.Result.AverageMs())
	if mps := e.MegapixelsPerSecond(); mps > 0 {
		printer.Fprintf(w, " (%d repetitions, %.1f Mpx/s)", e.Result.Repetitions, mps)
	}
	if e.Invalid {
		printer.Fprintf(w, " [INVALID: output depends on scheduling]")
	}
	printer.Fprintf(w, "\n\n")
}

// Ranked returns the valid entries ordered fastest first by average, and
// the invalid ones in their original order.
func Ranked(entries []Entry) (valid, invalid []Entry) {
	valid, invalid = lo.FilterReject(entries, func(e Entry, _ int) bool { return !e.Invalid })
	slices.SortStableFunc(valid, func(a, b Entry) int {
		return cmp.Compare(a.Result.Average(), b.Result.Average())
	})
	return valid, invalid
}

// Compare writes a ranking table: valid entries by average time with their
// speedup over the slowest, then invalid entries flagged.
func Compare(w io.Writer, entries []Entry) {
	valid, invalid := Ranked(entries)
	width := lo.Max(lo.Map(entries, func(e Entry, _ int) int { return len(e.Name) }))

	var slowest float64
	if len(valid) > 0 {
		slowest = valid[len(valid)-1].Result.AverageMs()
	}
	for i, e := range valid {
		speedup := 0.0
		if avg := e.Result.AverageMs(); avg > 0 {
			speedup = slowest / avg
		}
		printer.Fprintf(w, "%2d. %-*s %12.3fms  x%.2f\n", i+1, width, e.Name, e.Result.AverageMs(), speedup)
	}
	for _, e := range invalid {
		printer.Fprintf(w, " -  %-*s %12.3fms  invalid\n", width, e.Name, e.Result.AverageMs())
	}
}
