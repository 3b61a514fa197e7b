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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	buf := NewBuffer(4, 5)
	assert.Equal(t, 4, buf.Rows)
	assert.Equal(t, 5, buf.Cols)
	assert.Len(t, buf.Pix, 4*5*Channels)
	assert.Equal(t, 15, buf.Stride())
	assert.Equal(t, 20, buf.Pixels())

	empty := NewBuffer(0, 10)
	assert.Empty(t, empty.Pix)
	assert.Zero(t, empty.Rows)
}

func TestAtSet(t *testing.T) {
	buf := NewBuffer(3, 3)
	buf.Set(1, 2, [3]uint8{10, 20, 30})

	assert.Equal(t, [3]uint8{10, 20, 30}, buf.At(1, 2))
	assert.Equal(t, uint8(10), buf.Pix[buf.Offset(1, 2)])
	assert.Equal(t, [3]uint8{}, buf.At(-1, 0))
	assert.Equal(t, [3]uint8{}, buf.At(0, 3))

	// Out of range writes are dropped.
	buf.Set(3, 0, [3]uint8{1, 1, 1})
	for _, v := range buf.Pix[:buf.Offset(1, 2)] {
		assert.Zero(t, v)
	}
}

func TestFromPix(t *testing.T) {
	pix := make([]uint8, 2*3*Channels)
	buf, err := FromPix(pix, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Rows)

	_, err = FromPix(pix, 3, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestCloneIsIndependent(t *testing.T) {
	buf := NewBuffer(2, 2)
	buf.Fill([3]uint8{1, 2, 3})

	clone := buf.Clone()
	require.True(t, Equal(buf, clone))

	clone.Set(0, 0, [3]uint8{9, 9, 9})
	assert.Equal(t, [3]uint8{1, 2, 3}, buf.At(0, 0))
	assert.False(t, Equal(buf, clone))
}

func TestRowAndRowRange(t *testing.T) {
	buf := NewBuffer(4, 2)
	for y := range 4 {
		row := buf.Row(y)
		for i := range row {
			row[i] = uint8(y)
		}
	}

	view := buf.RowRange(1, 3)
	assert.Equal(t, 2, view.Rows)
	assert.Equal(t, [3]uint8{1, 1, 1}, view.At(0, 0))
	assert.Equal(t, [3]uint8{2, 2, 2}, view.At(1, 1))

	// Views share storage.
	view.Set(0, 0, [3]uint8{7, 7, 7})
	assert.Equal(t, [3]uint8{7, 7, 7}, buf.At(1, 0))

	assert.Nil(t, buf.Row(4))
	assert.Zero(t, buf.RowRange(3, 1).Rows)
}

func TestSwap(t *testing.T) {
	a := NewBuffer(2, 2)
	b := NewBuffer(2, 2)
	b.Fill([3]uint8{5, 5, 5})

	a.Swap(b)
	assert.Equal(t, [3]uint8{5, 5, 5}, a.At(1, 1))
	assert.Equal(t, [3]uint8{0, 0, 0}, b.At(1, 1))

	assert.Panics(t, func() { a.Swap(NewBuffer(1, 2)) })
}

func TestPropertiesValidate(t *testing.T) {
	tests := []struct {
		props Properties
		ok    bool
	}{
		{Properties{Rows: 4, Cols: 4, Type: TypeU8C3, Channels: 3}, true},
		{Properties{Rows: 0, Cols: 0, Type: TypeU8C3, Channels: 3}, true},
		{Properties{Rows: 4, Cols: 4, Type: TypeU8C3, Channels: 4}, false},
		{Properties{Rows: 4, Cols: 4, Type: 0, Channels: 3}, false},
		{Properties{Rows: -1, Cols: 4, Type: TypeU8C3, Channels: 3}, false},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.props), func(t *testing.T) {
			err := tc.props.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrConfiguration)
			}
		})
	}

	props := NewBuffer(3, 7).Properties()
	assert.Equal(t, 21, props.RowBytes())
	assert.Equal(t, 63, props.Bytes())
	assert.NoError(t, props.Validate())
}

func TestErrorClasses(t *testing.T) {
	cause := errors.New("boom")

	loadErr := error(&ImageLoadError{Path: "x.png", Err: cause})
	assert.ErrorIs(t, loadErr, ErrImageLoad)
	assert.ErrorIs(t, loadErr, cause)
	assert.NotErrorIs(t, loadErr, ErrTransport)

	wrapped := fmt.Errorf("decode: %w", &TransportError{Op: "gather", Rank: 2, Err: ErrAborted})
	assert.ErrorIs(t, wrapped, ErrTransport)
	assert.ErrorIs(t, wrapped, ErrAborted)
	assert.Contains(t, wrapped.Error(), "rank 2")
}

func TestEnv(t *testing.T) {
	t.Setenv("PIXPIPE_TEST_INT", "12")
	t.Setenv("PIXPIPE_TEST_BAD", "twelve")
	t.Setenv("PIXPIPE_TEST_BOOL", "false")
	t.Setenv("PIXPIPE_TEST_ON", "yes")
	t.Setenv("PIXPIPE_TEST_STR", " dynamic ")

	assert.Equal(t, 12, EnvInt("TEST_INT", 3))
	assert.Equal(t, 3, EnvInt("TEST_BAD", 3))
	assert.Equal(t, 3, EnvInt("TEST_UNSET", 3))
	assert.False(t, EnvBool("TEST_BOOL", true))
	assert.True(t, EnvBool("TEST_ON", false))
	assert.Equal(t, "dynamic", EnvString("TEST_STR", "static"))
	assert.Equal(t, "static", EnvString("TEST_UNSET", "static"))
}
