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

// Package kernel provides the per-pixel colour transforms.
//
// All transforms are pure functions of one pixel (and, for Emboss, its
// top-left neighbour). They hold no state and are safe to call from many
// goroutines on disjoint parts of a buffer.
//
//	Grayscale(p)          // luminosity weighted gray
//	HSV(p)                // hue/saturation/value packed into 8 bits
//	Emboss(p, topLeft)    // neighbour difference around mid gray
//
// Kernel wraps a transform with what it reads, so callers can tell point
// kernels (safe to run in place) from neighbourhood kernels (must read a
// snapshot and write a shadow buffer). Any new kernel whose output depends
// on more than its own pixel must be registered as a Neighborhood kernel.
package kernel
