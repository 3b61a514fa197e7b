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
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every failure in a pipeline invocation is fatal
// for that invocation; none of these are retried.
var (
	ErrConfiguration = errors.New("pixpipe: configuration error")
	ErrImageLoad     = errors.New("pixpipe: image load error")
	ErrTransport     = errors.New("pixpipe: transport error")

	// ErrAborted marks transport failures induced by another rank giving up.
	ErrAborted = errors.New("pixpipe: group aborted")
)

// ConfigurationError reports an invalid worker count, chain or image shape.
// It is raised before any work starts.
type ConfigurationError struct {
	Reason string
}

// Configf builds a ConfigurationError.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return "pixpipe: configuration: " + e.Reason
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ImageLoadError reports that the source image could not be decoded.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("pixpipe: could not open or find image %q", e.Path)
	}
	return fmt.Sprintf("pixpipe: could not open or find image %q: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error {
	return e.Err
}

func (e *ImageLoadError) Is(target error) bool {
	return target == ErrImageLoad
}

// TransportError reports a failed collective: a peer that hung up, sent
// the wrong message, or aborted the group.
type TransportError struct {
	Op   string
	Rank int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pixpipe: transport %s (rank %d): %v", e.Op, e.Rank, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
