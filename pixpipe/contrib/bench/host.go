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
	"fmt"
	"runtime"
	"strings"
)

// Host describes the machine a benchmark ran on, e.g.
// "linux/amd64, 16 CPUs, GOMAXPROCS=16, avx avx2 fma".
func Host() string {
	features := cpuFeatures()
	if len(features) == 0 {
		features = []string{"no simd"}
	}
	return fmt.Sprintf("%s/%s, %d CPUs, GOMAXPROCS=%d, %s",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.GOMAXPROCS(0),
		strings.Join(features, " "))
}
