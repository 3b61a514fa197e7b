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
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-pixpipe/pixpipe"
)

// Dial retry policy for workers that start before the coordinator listens.
const (
	dialAttempts = 50
	dialBackoff  = 100 * time.Millisecond
)

// peer is one framed connection. Messages are msgpack-encoded, which is
// self-delimiting on a stream; rows payloads are zstd-compressed.
type peer struct {
	rank int
	conn net.Conn
	w    *bufio.Writer
	enc  *msgpack.Encoder
	dec  *msgpack.Decoder
}

func newPeer(rank int, conn net.Conn) *peer {
	w := bufio.NewWriterSize(conn, 1<<16)
	return &peer{
		rank: rank,
		conn: conn,
		w:    w,
		enc:  msgpack.NewEncoder(w),
		dec:  msgpack.NewDecoder(bufio.NewReaderSize(conn, 1<<16)),
	}
}

func (p *peer) write(m *message) error {
	if err := p.enc.Encode(m); err != nil {
		return err
	}
	return p.w.Flush()
}

func (p *peer) read() (message, error) {
	var m message
	err := p.dec.Decode(&m)
	return m, err
}

// TCP is a rank of a group whose members are separate processes.
// The root holds one connection per worker; workers hold one connection
// to the root.
type TCP struct {
	rank   int
	size   int
	seq    uint64
	peers  []*peer // indexed by rank; nil for self (and, on workers, for other workers)
	zenc   *zstd.Encoder
	zdec   *zstd.Decoder
	logger *slog.Logger

	abortOnce sync.Once
	aborted   atomic.Bool
	cause     error
}

var _ Comm = (*TCP)(nil)

// Listener is the coordinator side of a TCP group before every worker has
// connected.
type Listener struct {
	ln     net.Listener
	size   int
	logger *slog.Logger
}

// Listen opens addr for a group of size ranks (the coordinator plus
// size-1 workers).
func Listen(addr string, size int, logger *slog.Logger) (*Listener, error) {
	if size <= 0 {
		return nil, pixpipe.Configf("group size %d must be positive", size)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, transportErr("listen", Root, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{ln: ln, size: size, logger: logger}, nil
}

// Addr returns the address the coordinator is listening on.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept blocks until size-1 workers have connected, assigns them ranks
// 1..size-1 in connection order, and returns the root's Comm. The
// listener is closed on return.
func (l *Listener) Accept() (*TCP, error) {
	defer l.ln.Close()

	c, err := newTCP(Root, l.size, l.logger)
	if err != nil {
		return nil, err
	}
	for r := 1; r < l.size; r++ {
		conn, err := l.ln.Accept()
		if err != nil {
			c.Close()
			return nil, transportErr("accept", Root, err)
		}
		p := newPeer(r, conn)
		c.peers[r] = p
		if err := p.write(&message{Kind: kindHello, From: Root, Size: l.size, Seq: uint64(r)}); err != nil {
			c.Close()
			return nil, transportErr("hello", Root, err)
		}
		l.logger.Debug("worker connected", "rank", r, "remote", conn.RemoteAddr().String())
	}
	return c, nil
}

// Close stops listening without forming a group.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Dial connects a worker to the coordinator at addr and waits for its
// rank assignment. Connection refusals are retried briefly so workers may
// be started before the coordinator.
func Dial(addr string, logger *slog.Logger) (*TCP, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var conn net.Conn
	var err error
	for attempt := range dialAttempts {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		logger.Debug("coordinator not reachable yet", "addr", addr, "attempt", attempt+1, "error", err)
		time.Sleep(dialBackoff)
	}
	if err != nil {
		return nil, transportErr("dial", -1, err)
	}

	p := newPeer(Root, conn)
	hello, err := p.read()
	if err != nil {
		conn.Close()
		return nil, transportErr("hello", -1, err)
	}
	if hello.Kind != kindHello {
		conn.Close()
		return nil, transportErr("hello", -1, fmt.Errorf("got %s message, want hello", hello.Kind))
	}

	c, err := newTCP(int(hello.Seq), hello.Size, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.peers[Root] = p
	logger.Debug("joined group", "rank", c.rank, "size", c.size)
	return c, nil
}

func newTCP(rank, size int, logger *slog.Logger) (*TCP, error) {
	if rank < 0 || rank >= size {
		return nil, transportErr("hello", rank, fmt.Errorf("rank %d outside group of %d", rank, size))
	}
	zenc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	zdec, err := zstd.NewReader(nil)
	if err != nil {
		zenc.Close()
		return nil, err
	}
	return &TCP{
		rank:   rank,
		size:   size,
		peers:  make([]*peer, size),
		zenc:   zenc,
		zdec:   zdec,
		logger: logger,
	}, nil
}

func (c *TCP) Rank() int { return c.rank }
func (c *TCP) Size() int { return c.size }

// Abort closes every connection, which fails the blocked collectives of
// all other ranks.
func (c *TCP) Abort(err error) {
	c.abortOnce.Do(func() {
		if err == nil {
			err = errors.New("aborted")
		}
		c.cause = err
		c.aborted.Store(true)
		c.closeConns()
	})
}

// Close releases the connections and codecs.
func (c *TCP) Close() error {
	c.closeConns()
	c.zenc.Close()
	c.zdec.Close()
	return nil
}

func (c *TCP) closeConns() {
	for _, p := range c.peers {
		if p != nil {
			p.conn.Close()
		}
	}
}

func (c *TCP) begin(op string) error {
	if c.aborted.Load() {
		return transportErr(op, c.rank, fmt.Errorf("%w: %v", pixpipe.ErrAborted, c.cause))
	}
	c.seq++
	return nil
}

func (c *TCP) send(op string, to int, m message) error {
	m.From = c.rank
	m.Seq = c.seq
	if err := c.peers[to].write(&m); err != nil {
		return transportErr(op, c.rank, fmt.Errorf("send to rank %d: %w", to, err))
	}
	return nil
}

func (c *TCP) recv(op string, from int, want kind) (message, error) {
	m, err := c.peers[from].read()
	if err != nil {
		return m, transportErr(op, c.rank, fmt.Errorf("receive from rank %d: %w", from, err))
	}
	if err := expect(m, want, c.seq); err != nil {
		return m, transportErr(op, c.rank, err)
	}
	return m, nil
}

func (c *TCP) pack(raw []byte) message {
	return message{
		Kind:    kindRows,
		Size:    len(raw),
		Payload: c.zenc.EncodeAll(raw, make([]byte, 0, len(raw)/2)),
	}
}

func (c *TCP) unpack(op string, m message, want int) ([]byte, error) {
	if m.Size != want {
		return nil, transportErr(op, c.rank, fmt.Errorf("rank %d sent %d bytes, want %d", m.From, m.Size, want))
	}
	raw, err := c.zdec.DecodeAll(m.Payload, make([]byte, 0, want))
	if err != nil {
		return nil, transportErr(op, c.rank, fmt.Errorf("decompress rows from rank %d: %w", m.From, err))
	}
	if len(raw) != want {
		return nil, transportErr(op, c.rank, fmt.Errorf("rank %d rows decompress to %d bytes, want %d", m.From, len(raw), want))
	}
	return raw, nil
}

func (c *TCP) Broadcast(props *pixpipe.Properties) error {
	const op = "broadcast"
	if err := c.begin(op); err != nil {
		return err
	}
	if c.rank != Root {
		m, err := c.recv(op, Root, kindProps)
		if err != nil {
			return err
		}
		*props = m.Props
		return nil
	}
	for r := 1; r < c.size; r++ {
		if err := c.send(op, r, message{Kind: kindProps, Props: *props}); err != nil {
			return err
		}
	}
	return nil
}

func (c *TCP) Barrier() error {
	const op = "barrier"
	if err := c.begin(op); err != nil {
		return err
	}
	if c.rank != Root {
		if err := c.send(op, Root, message{Kind: kindBarrier}); err != nil {
			return err
		}
		_, err := c.recv(op, Root, kindRelease)
		return err
	}
	for r := 1; r < c.size; r++ {
		if _, err := c.recv(op, r, kindBarrier); err != nil {
			return err
		}
	}
	for r := 1; r < c.size; r++ {
		if err := c.send(op, r, message{Kind: kindRelease}); err != nil {
			return err
		}
	}
	return nil
}

func (c *TCP) Scatterv(send []byte, counts, displs []int) ([]byte, error) {
	const op = "scatter"
	if err := c.begin(op); err != nil {
		return nil, err
	}
	if c.rank != Root {
		if err := checkLayout(c.size, counts, displs, nil); err != nil {
			return nil, err
		}
		m, err := c.recv(op, Root, kindRows)
		if err != nil {
			return nil, err
		}
		return c.unpack(op, m, counts[c.rank])
	}

	if err := checkLayout(c.size, counts, displs, send); err != nil {
		return nil, err
	}
	var g errgroup.Group
	for r := 1; r < c.size; r++ {
		g.Go(func() error {
			return c.send(op, r, c.pack(send[displs[r]:displs[r]+counts[r]]))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return copyRange(send, displs[Root], counts[Root]), nil
}

func (c *TCP) Gatherv(part, recv []byte, counts, displs []int) error {
	const op = "gather"
	if err := c.begin(op); err != nil {
		return err
	}
	var layoutBuf []byte
	if c.rank == Root {
		layoutBuf = recv
	}
	if err := checkLayout(c.size, counts, displs, layoutBuf); err != nil {
		return err
	}
	if len(part) != counts[c.rank] {
		return pixpipe.Configf("rank %d gathers %d bytes, layout expects %d", c.rank, len(part), counts[c.rank])
	}

	if c.rank != Root {
		return c.send(op, Root, c.pack(part))
	}

	copy(recv[displs[Root]:], part)
	var g errgroup.Group
	for r := 1; r < c.size; r++ {
		g.Go(func() error {
			m, err := c.recv(op, r, kindRows)
			if err != nil {
				return err
			}
			raw, err := c.unpack(op, m, counts[r])
			if err != nil {
				return err
			}
			copy(recv[displs[r]:], raw)
			return nil
		})
	}
	return g.Wait()
}
