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

// Package group connects a fixed set of ranks with blocking collectives.
//
// Rank 0 is the root (the coordinator). Every collective must be called by
// every rank in the same order; none returns on any rank until the data it
// needs has arrived, so each one doubles as a synchronization point.
//
//	Broadcast  root's Properties to every rank
//	Barrier    nobody leaves until everybody has arrived
//	Scatterv   root's bytes [displs[i], displs[i]+counts[i]) to rank i
//	Gatherv    rank i's bytes into root's buffer at displs[i]
//
// Received data is always a freshly allocated slice owned by the receiver.
// A peer that disconnects, sends the wrong message, or calls Abort makes
// every blocked collective fail with a *pixpipe.TransportError. There is
// no retry and no timeout.
//
// Two transports are provided: Local connects goroutines in one process
// through channels, and TCP connects separate processes.
package group

import (
	"fmt"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// Comm is one rank's handle on the group.
type Comm interface {
	Rank() int
	Size() int

	// Broadcast sends *props from the root to every rank. On other ranks
	// *props is overwritten with the root's value.
	Broadcast(props *pixpipe.Properties) error

	Barrier() error

	// Scatterv returns rank's slice of send. Only the root reads send.
	Scatterv(send []byte, counts, displs []int) ([]byte, error)

	// Gatherv copies every rank's part into recv at displs. Only the root
	// writes recv; it must hold at least the sum of counts.
	Gatherv(part, recv []byte, counts, displs []int) error

	// Abort fails every pending and future collective on every rank.
	Abort(err error)

	Close() error
}

// Root is the coordinator's rank.
const Root = 0

type kind uint8

const (
	kindProps kind = iota + 1
	kindBarrier
	kindRelease
	kindRows
	kindHello
)

func (k kind) String() string {
	switch k {
	case kindProps:
		return "props"
	case kindBarrier:
		return "barrier"
	case kindRelease:
		return "release"
	case kindRows:
		return "rows"
	case kindHello:
		return "hello"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// message is the unit exchanged between ranks by every transport.
type message struct {
	Kind    kind
	Seq     uint64
	From    int
	Size    int
	Props   pixpipe.Properties
	Payload []byte
}

func transportErr(op string, rank int, err error) error {
	return &pixpipe.TransportError{Op: op, Rank: rank, Err: err}
}

// expect checks that m is the next message of the given kind.
func expect(m message, want kind, seq uint64) error {
	if m.Kind != want {
		return fmt.Errorf("got %s message from rank %d, want %s", m.Kind, m.From, want)
	}
	if m.Seq != seq {
		return fmt.Errorf("%s message from rank %d has sequence %d, want %d", m.Kind, m.From, m.Seq, seq)
	}
	return nil
}

// checkLayout validates counts and displs against the group size and,
// when buf is non-nil, against its length.
func checkLayout(size int, counts, displs []int, buf []byte) error {
	if len(counts) != size || len(displs) != size {
		return pixpipe.Configf("layout has %d counts and %d displs for %d ranks", len(counts), len(displs), size)
	}
	for i := range counts {
		if counts[i] < 0 || displs[i] < 0 {
			return pixpipe.Configf("negative count or displacement for rank %d", i)
		}
		if buf != nil && displs[i]+counts[i] > len(buf) {
			return pixpipe.Configf("rank %d range [%d, %d) exceeds buffer of %d bytes",
				i, displs[i], displs[i]+counts[i], len(buf))
		}
	}
	return nil
}
