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

package codec

import (
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// Display presents a finished image. Showing is best effort: failures are
// logged, never returned, and never fail the pipeline.
type Display interface {
	Show(buf *pixpipe.Buffer, title string)
}

// NopDisplay discards everything.
type NopDisplay struct{}

func (NopDisplay) Show(*pixpipe.Buffer, string) {}

// FileDisplay "shows" an image by writing a PNG preview into Dir, named
// after the window title. It stands in for a GUI window on headless hosts.
type FileDisplay struct {
	Dir    string
	Codec  Codec
	Logger *slog.Logger
}

func (d FileDisplay) Show(buf *pixpipe.Buffer, title string) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := d.Codec
	if c == nil {
		c = Imaging{}
	}
	path := filepath.Join(d.Dir, "show_"+slug(title)+".png")
	if err := c.Encode(buf, path); err != nil {
		logger.Warn("display failed", "title", title, "error", err)
		return
	}
	logger.Info("image shown", "title", title, "path", path)
}

// slug lowercases s and replaces everything but letters and digits with
// underscores.
func slug(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, strings.TrimSpace(s))
	if s == "" {
		return "image"
	}
	return s
}
