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
	"crypto/tls"
	"errors"
	"io"
	"net"

	"github.com/jeremyhahn/go-tlsengine/pkg/logging"
	"github.com/jeremyhahn/go-tlsengine/pkg/types"
)

// Engine drives one handshake/record-protocol session bound to one peer.
// Every operation completes immediately using in-memory buffers or
// returns a state-machine classification; nothing blocks on the network.
// An engine must not be invoked concurrently from multiple goroutines.
type Engine struct {
	ctx      *Context
	host     string
	ip       net.IP
	config   *tls.Config
	bridge   *bridgeConn
	conn     *tls.Conn
	sessions *sessionCache
	log      *logging.Logger

	hsStarted bool
	err       error
}

// HandshakeState reports the engine's handshake progression.
func (e *Engine) HandshakeState() types.HandshakeState {
	if !e.hsStarted {
		return types.HandshakeBefore
	}
	done, err := e.bridge.handshakeResult()
	switch {
	case !done:
		return types.HandshakeContinue
	case err != nil:
		return types.HandshakeError
	default:
		return types.HandshakeComplete
	}
}

// Handshake advances the handshake with any supplied inbound ciphertext,
// then drains queued outbound bytes into out. It returns the resulting
// state and the number of bytes written to out; HandshakeContinue means
// the caller must deliver/collect bytes and call again.
//
// The underlying handshake runs on a dedicated goroutine that blocks on
// the inbound bridge; this call rendezvouses with it and returns as soon
// as no further progress is possible without more ciphertext.
func (e *Engine) Handshake(in, out []byte) (types.HandshakeState, int) {
	if len(in) > 0 {
		e.bridge.feed(in)
	}

	if !e.hsStarted {
		e.hsStarted = true
		go runHandshake(e.conn, e.bridge)
	}

	e.bridge.awaitHandshake()

	n := e.bridge.drain(out)
	done, err := e.bridge.handshakeResult()
	switch {
	case !done:
		return types.HandshakeContinue, n
	case err != nil:
		e.err = err
		e.log.Errorf("engine: handshake with %s failed: %v", e.host, err)
		return types.HandshakeError, n
	default:
		return types.HandshakeComplete, n
	}
}

func runHandshake(conn *tls.Conn, bridge *bridgeConn) {
	bridge.finishHandshake(conn.Handshake())
}

// ALPN returns the negotiated application protocol, or the empty string
// when none was negotiated.
func (e *Engine) ALPN() string {
	return e.conn.ConnectionState().NegotiatedProtocol
}

// Write wraps application bytes into TLS records, then drains up to
// len(out) of the produced ciphertext into out. It returns the bytes
// written to out and the count still queued beyond what fit; the caller
// drains the remainder with further Write calls (an empty data slice
// only drains).
func (e *Engine) Write(data, out []byte) (int, int, error) {
	if e.HandshakeState() != types.HandshakeComplete {
		return 0, 0, ErrHandshakeNotComplete
	}
	if len(data) > 0 {
		if _, err := e.conn.Write(data); err != nil {
			e.err = err
			return 0, 0, err
		}
	}
	n := e.bridge.drain(out)
	return n, e.bridge.outAvailable(), nil
}

// Read enqueues supplied ciphertext, then unwraps plaintext into out
// until out is full or no more plaintext is currently available. The
// Result tells the caller how to proceed: MoreAvailable means re-invoke
// immediately without waiting on the network, HasWrite means queued
// outbound bytes must be flushed first, EOF means the peer sent a close
// notify.
func (e *Engine) Read(in, out []byte) (int, types.Result) {
	if len(in) > 0 {
		e.bridge.feed(in)
	}
	if e.HandshakeState() != types.HandshakeComplete {
		if e.err == nil {
			e.err = ErrHandshakeNotComplete
		}
		return 0, types.Err
	}

	total := 0
	var err error
	for total < len(out) {
		var n int
		n, err = e.conn.Read(out[total:])
		total += n
		if err != nil {
			break
		}
	}

	switch {
	case errors.Is(err, errWouldBlock):
		// more bytes are needed to complete the current TLS record
		if e.bridge.outAvailable() > 0 {
			return total, types.HasWrite
		}
		return total, types.OK
	case errors.Is(err, io.EOF):
		return total, types.EOF
	case err != nil:
		e.err = err
		e.log.Errorf("engine: read from %s failed: %v", e.host, err)
		return total, types.Err
	default:
		// out is full; plaintext may remain buffered in the record layer
		return total, types.MoreAvailable
	}
}

// Close generates a close-notify record and drains it into out. It does
// not tear down the engine; Reset still reuses it.
func (e *Engine) Close(out []byte) int {
	e.log.MaybeError(e.conn.Close())
	return e.bridge.drain(out)
}

// Reset returns the engine to the pre-handshake state so it can be
// reused for a new connection attempt. Session capture is best-effort:
// whatever session the peer delivered stays queued for one-shot replay
// into the next handshake, and reset succeeds regardless.
func (e *Engine) Reset() error {
	e.bridge.Close()
	e.bridge = newBridgeConn()
	e.conn = tls.Client(e.bridge, e.config)
	e.hsStarted = false
	e.err = nil
	return nil
}

// Err returns the retained error from the last failed operation.
func (e *Engine) Err() error {
	return e.err
}

// Strerror returns a human-readable description of the engine's retained
// error, or "ok" when none is retained.
func (e *Engine) Strerror() string {
	if e.err != nil {
		return e.err.Error()
	}
	return types.OK.String()
}
