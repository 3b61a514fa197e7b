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

// Command pixpipe benchmarks filter chains over an image.
//
// Usage:
//
//	pixpipe simple -i photo.jpg                     # one process
//	pixpipe local -i photo.jpg --workers 4          # 4 ranks in this process
//	pixpipe coordinator -i photo.jpg --size 3 --listen :7070
//	pixpipe worker --connect host:7070              # run size-1 of these
//	pixpipe baseline -i photo.jpg                   # library reference
//	pixpipe compare -i photo.jpg                    # all of the above, ranked
//	pixpipe kernels                                 # list filter names
//
// Every flag can also be set through a PIXPIPE_* environment variable,
// e.g. PIXPIPE_THREADS=8 or PIXPIPE_CHAIN=grayscale,emboss. Flags win.
//
// A coordinator and its workers must be started with the same --chain,
// --reps, --halo and --fused settings: each process runs its own copy of
// the benchmark loop and they meet at every collective.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("pixpipe failed", "error", err)
		os.Exit(1)
	}
}
