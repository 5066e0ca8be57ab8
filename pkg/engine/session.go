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
	"sync"
)

// sessionCache is a single-slot tls.ClientSessionCache holding the most
// recently negotiated session for one engine. The slot is consumed
// one-shot: Get clears it, so the blob is replayed into exactly one
// subsequent handshake. Capture is best-effort; an engine that never
// received a session simply performs full handshakes.
type sessionCache struct {
	mu    sync.Mutex
	state *tls.ClientSessionState
}

// Get implements tls.ClientSessionCache. The cache key is ignored; the
// engine is bound to a single peer.
func (c *sessionCache) Get(string) (*tls.ClientSessionState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	c.state = nil
	return s, s != nil
}

// Put implements tls.ClientSessionCache. crypto/tls calls Put with a nil
// state to evict a session it no longer considers usable.
func (c *sessionCache) Put(_ string, cs *tls.ClientSessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = cs
}
