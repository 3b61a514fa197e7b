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

// Package pixpipe holds the types shared by every stage of the
// partition-transform-reassemble pipeline.
//
// The core types are Buffer, a dense row-major image with three interleaved
// 8-bit channels, and Properties, the shape description the coordinator
// broadcasts to its workers before any pixel data moves.
//
// # Packages
//
//	contrib/kernel     per-pixel transforms (grayscale, HSV, emboss)
//	contrib/workerpool persistent goroutine pool with static and dynamic loops
//	contrib/loop       applies kernels over a buffer (nested or flattened)
//	contrib/partition  row-balanced split across distributed workers
//	contrib/group      broadcast, scatter, gather and barrier between ranks
//	contrib/pipeline   the distributed run, plus single-process variants
//	contrib/codec      image decode/encode and preview display
//	contrib/baseline   library-native reference filters
//	contrib/bench      repetition timer and throughput reports
//
// # Errors
//
// Failures fall into three classes, each a struct type with a matching
// sentinel for errors.Is: ConfigurationError, ImageLoadError and
// TransportError. Every one of them aborts the whole invocation.
//
// # Environment
//
// Settings can be supplied as PIXPIPE_* environment variables; see
// EnvString, EnvInt and EnvBool.
package pixpipe
