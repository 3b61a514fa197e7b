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
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is prepended to every environment variable read by this module.
const EnvPrefix = "PIXPIPE_"

// EnvString returns $PIXPIPE_<key>, or fallback when unset or empty.
func EnvString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(EnvPrefix + key)); val != "" {
		return val
	}
	return fallback
}

// EnvInt returns $PIXPIPE_<key> parsed as an integer, or fallback when
// unset or unparsable.
func EnvInt(key string, fallback int) int {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return i
}

// EnvBool returns $PIXPIPE_<key> as a boolean. Any non-empty value that
// does not parse as a bool counts as true.
func EnvBool(key string, fallback bool) bool {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return fallback
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
