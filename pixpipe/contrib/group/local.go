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

package group

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// hub is the shared state of a Local group: one inbox per rank and a done
// channel closed on abort.
type hub struct {
	size  int
	inbox []chan message
	done  chan struct{}
	once  sync.Once
	cause error
}

func (h *hub) abort(err error) {
	h.once.Do(func() {
		if err == nil {
			err = errors.New("aborted")
		}
		h.cause = err
		close(h.done)
	})
}

func (h *hub) abortErr() error {
	return fmt.Errorf("%w: %v", pixpipe.ErrAborted, h.cause)
}

// Local is a rank of an in-process group. Ranks share no pixel memory:
// every transfer copies into a buffer owned by the receiver.
type Local struct {
	hub    *hub
	rank   int
	seq    uint64
	closed atomic.Bool
}

var _ Comm = (*Local)(nil)

// NewLocal returns the size ranks of a new in-process group. Each rank is
// meant to be driven by its own goroutine.
func NewLocal(size int) []*Local {
	if size <= 0 {
		panic(fmt.Sprintf("group: size %d must be positive", size))
	}
	h := &hub{
		size:  size,
		inbox: make([]chan message, size),
		done:  make(chan struct{}),
	}
	ranks := make([]*Local, size)
	for i := range ranks {
		h.inbox[i] = make(chan message, size)
		ranks[i] = &Local{hub: h, rank: i}
	}
	return ranks
}

func (c *Local) Rank() int { return c.rank }
func (c *Local) Size() int { return c.hub.size }

// Abort fails all collectives on every rank of the group.
func (c *Local) Abort(err error) {
	c.hub.abort(err)
}

// Close marks this rank unusable. Other ranks are unaffected.
func (c *Local) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *Local) begin(op string) error {
	if c.closed.Load() {
		return transportErr(op, c.rank, errors.New("use of closed rank"))
	}
	select {
	case <-c.hub.done:
		return transportErr(op, c.rank, c.hub.abortErr())
	default:
	}
	c.seq++
	return nil
}

func (c *Local) send(op string, to int, m message) error {
	m.From = c.rank
	m.Seq = c.seq
	select {
	case c.hub.inbox[to] <- m:
		return nil
	case <-c.hub.done:
		return transportErr(op, c.rank, c.hub.abortErr())
	}
}

func (c *Local) recv(op string, want kind) (message, error) {
	select {
	case m := <-c.hub.inbox[c.rank]:
		if err := expect(m, want, c.seq); err != nil {
			return m, transportErr(op, c.rank, err)
		}
		return m, nil
	case <-c.hub.done:
		return message{}, transportErr(op, c.rank, c.hub.abortErr())
	}
}

func (c *Local) Broadcast(props *pixpipe.Properties) error {
	const op = "broadcast"
	if err := c.begin(op); err != nil {
		return err
	}
	if c.rank != Root {
		m, err := c.recv(op, kindProps)
		if err != nil {
			return err
		}
		*props = m.Props
		return nil
	}
	for r := 1; r < c.hub.size; r++ {
		if err := c.send(op, r, message{Kind: kindProps, Props: *props}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Local) Barrier() error {
	const op = "barrier"
	if err := c.begin(op); err != nil {
		return err
	}
	if c.rank != Root {
		if err := c.send(op, Root, message{Kind: kindBarrier}); err != nil {
			return err
		}
		_, err := c.recv(op, kindRelease)
		return err
	}
	for range c.hub.size - 1 {
		if _, err := c.recv(op, kindBarrier); err != nil {
			return err
		}
	}
	for r := 1; r < c.hub.size; r++ {
		if err := c.send(op, r, message{Kind: kindRelease}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Local) Scatterv(send []byte, counts, displs []int) ([]byte, error) {
	const op = "scatter"
	if err := c.begin(op); err != nil {
		return nil, err
	}
	if c.rank != Root {
		if err := checkLayout(c.hub.size, counts, displs, nil); err != nil {
			return nil, err
		}
		m, err := c.recv(op, kindRows)
		if err != nil {
			return nil, err
		}
		if len(m.Payload) != counts[c.rank] {
			return nil, transportErr(op, c.rank, fmt.Errorf("received %d bytes, want %d", len(m.Payload), counts[c.rank]))
		}
		return m.Payload, nil
	}

	if err := checkLayout(c.hub.size, counts, displs, send); err != nil {
		return nil, err
	}
	for r := 1; r < c.hub.size; r++ {
		if err := c.send(op, r, message{Kind: kindRows, Payload: copyRange(send, displs[r], counts[r])}); err != nil {
			return nil, err
		}
	}
	return copyRange(send, displs[Root], counts[Root]), nil
}

func (c *Local) Gatherv(part, recv []byte, counts, displs []int) error {
	const op = "gather"
	if err := c.begin(op); err != nil {
		return err
	}
	var layoutBuf []byte
	if c.rank == Root {
		layoutBuf = recv
	}
	if err := checkLayout(c.hub.size, counts, displs, layoutBuf); err != nil {
		return err
	}
	if len(part) != counts[c.rank] {
		return pixpipe.Configf("rank %d gathers %d bytes, layout expects %d", c.rank, len(part), counts[c.rank])
	}

	if c.rank != Root {
		return c.send(op, Root, message{Kind: kindRows, Payload: copyRange(part, 0, len(part))})
	}

	copy(recv[displs[Root]:], part)
	for range c.hub.size - 1 {
		m, err := c.recv(op, kindRows)
		if err != nil {
			return err
		}
		if len(m.Payload) != counts[m.From] {
			return transportErr(op, c.rank, fmt.Errorf("rank %d sent %d bytes, want %d", m.From, len(m.Payload), counts[m.From]))
		}
		copy(recv[displs[m.From]:], m.Payload)
	}
	return nil
}

// copyRange returns a freshly allocated copy of buf[off:off+n].
func copyRange(buf []byte, off, n int) []byte {
	out := make([]byte, n)
	copy(out, buf[off:off+n])
	return out
}
