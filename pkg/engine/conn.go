// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tlsengine.
//
// go-tlsengine is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package engine

import (
	"net"
	"sync"
	"time"

	"github.com/jeremyhahn/go-tlsengine/pkg/bio"
)

// wouldBlockError is the temporary net.Error the bridge returns from Read
// when the inbound queue is empty after the handshake. crypto/tls does not
// latch temporary errors during record processing, so the caller can feed
// more ciphertext and retry.
type wouldBlockError struct{}

func (wouldBlockError) Error() string   { return "engine: operation would block" }
func (wouldBlockError) Timeout() bool   { return false }
func (wouldBlockError) Temporary() bool { return true }

var errWouldBlock error = wouldBlockError{}

type bridgeAddr struct{}

func (bridgeAddr) Network() string { return "bio" }
func (bridgeAddr) String() string  { return "bio" }

// bridgeConn is the net.Conn handed to crypto/tls. Both directions are
// byte bridges; the TLS stack's reads pull from the inbound queue and its
// writes append to the outbound queue.
//
// During the handshake crypto/tls cannot tolerate a would-block error (it
// latches any handshake failure permanently), so the handshake runs on a
// dedicated goroutine and Read blocks on a condition variable, flagging a
// stalled state the engine rendezvouses with. Once the handshake result is
// recorded the conn switches to record mode and an empty inbound queue
// yields errWouldBlock instead.
type bridgeConn struct {
	mu   sync.Mutex
	cond *sync.Cond

	in  *bio.Buffer
	out *bio.Buffer

	recordMode bool
	stalled    bool
	closed     bool

	hsDone bool
	hsErr  error
}

func newBridgeConn() *bridgeConn {
	c := &bridgeConn{
		in:  bio.New(),
		out: bio.New(),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Read is invoked by crypto/tls.
func (c *bridgeConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recordMode {
		if c.closed {
			return 0, net.ErrClosed
		}
		if c.in.Available() == 0 {
			return 0, errWouldBlock
		}
		return c.in.Read(p), nil
	}

	for c.in.Available() == 0 && !c.closed {
		c.stalled = true
		c.cond.Broadcast()
		c.cond.Wait()
	}
	c.stalled = false
	if c.closed {
		return 0, net.ErrClosed
	}
	return c.in.Read(p), nil
}

// Write is invoked by crypto/tls; it appends to the outbound queue and
// always accepts the full length.
func (c *bridgeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	c.out.Put(p)
	return len(p), nil
}

// Close releases a handshake goroutine blocked in Read. Queued outbound
// bytes remain drainable.
func (c *bridgeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cond.Broadcast()
	return nil
}

func (c *bridgeConn) LocalAddr() net.Addr                { return bridgeAddr{} }
func (c *bridgeConn) RemoteAddr() net.Addr               { return bridgeAddr{} }
func (c *bridgeConn) SetDeadline(t time.Time) error      { return nil }
func (c *bridgeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *bridgeConn) SetWriteDeadline(t time.Time) error { return nil }

// feed enqueues inbound ciphertext and wakes a stalled handshake.
func (c *bridgeConn) feed(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.Put(data)
	c.cond.Broadcast()
}

// drain moves up to len(out) outbound bytes into the caller's buffer.
func (c *bridgeConn) drain(out []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Read(out)
}

func (c *bridgeConn) outAvailable() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Available()
}

func (c *bridgeConn) inAvailable() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.in.Available()
}

// awaitHandshake blocks until the handshake goroutine either finished or
// stalled with an empty inbound queue, i.e. until no further progress is
// possible without more ciphertext from the caller.
func (c *bridgeConn) awaitHandshake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.hsDone && !(c.stalled && c.in.Available() == 0) {
		c.cond.Wait()
	}
}

// finishHandshake records the handshake outcome and switches the conn to
// record mode.
func (c *bridgeConn) finishHandshake(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hsDone = true
	c.hsErr = err
	c.recordMode = true
	c.cond.Broadcast()
}

func (c *bridgeConn) handshakeResult() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hsDone, c.hsErr
}
