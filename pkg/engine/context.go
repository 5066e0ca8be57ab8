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

// Package engine provides the TLS context and per-connection engine: a
// non-blocking state machine that mediates the handshake and record
// protection between caller-supplied byte buffers and crypto/tls. The
// transport layer owns all socket I/O; it delivers inbound ciphertext to
// the engine and pulls queued outbound bytes from it.
package engine

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"runtime"

	"github.com/jeremyhahn/go-tlsengine/pkg/keys"
	"github.com/jeremyhahn/go-tlsengine/pkg/logging"
	"github.com/jeremyhahn/go-tlsengine/pkg/types"
)

// TrustConfig selects the trust anchors for a context. CA takes PEM or
// DER certificate material; CAFile names a bundle on disk. When both are
// empty the well-known system CA bundle locations are probed in order.
type TrustConfig struct {
	CA     []byte
	CAFile string
}

// Factory constructs a TLS context. Callers choose an implementation
// explicitly at context-construction time; DefaultFactory returns the
// crypto/tls-backed one.
type Factory func(TrustConfig) (*Context, error)

// DefaultFactory returns the factory for the crypto/tls-backed context.
func DefaultFactory() Factory {
	return NewContext
}

// Context holds long-lived TLS configuration: trust anchors, the ALPN
// protocol list, an optional own certificate/key pair, and an optional
// verification callback. Multiple engines may be created from one
// context; the context must outlive them. Mutating the configuration
// concurrently with engine creation is unsafe and must be externally
// serialized.
type Context struct {
	roots     *x509.CertPool
	alpn      []string
	ownCert   []*x509.Certificate
	ownKey    types.PrivateKey
	ownPair   *tls.Certificate
	verifyCB  VerifyCallback
	verifyCtx any
	log       *logging.Logger
}

// NewContext creates a context with the given trust configuration.
// Malformed trust anchor material is an error; absence of any system
// bundle with an empty configuration is not, it yields an empty trust
// anchor set.
func NewContext(trust TrustConfig) (*Context, error) {
	log := logging.NewLogger(tlsDebug())
	c := &Context{log: log}

	switch {
	case len(trust.CA) > 0:
		chain, err := keys.LoadCertificates(trust.CA)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTrustAnchors, err)
		}
		c.roots = x509.NewCertPool()
		for _, cert := range chain.Certificates() {
			c.roots.AddCert(cert)
		}
	case trust.CAFile != "":
		chain, err := keys.LoadCertificates([]byte(trust.CAFile))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTrustAnchors, err)
		}
		c.roots = x509.NewCertPool()
		for _, cert := range chain.Certificates() {
			c.roots.AddCert(cert)
		}
	default:
		c.roots = systemRoots(log)
	}
	return c, nil
}

// Version identifies the underlying TLS stack.
func (c *Context) Version() string {
	return "crypto/tls " + runtime.Version()
}

// SetALPNProtocols replaces the ALPN protocol list. Engines created after
// the call advertise the new list.
func (c *Context) SetALPNProtocols(protocols []string) {
	next := make([]string, len(protocols))
	copy(next, protocols)
	c.alpn = next
}

// SetOwnCert configures the certificate presented for client
// authentication, from a PEM/DER buffer or a file path. A certificate
// set before its paired key is buffered until the key arrives; once both
// are present the pairing is committed. Malformed material leaves prior
// configuration unchanged.
func (c *Context) SetOwnCert(data []byte) error {
	chain, err := keys.LoadCertificates(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	c.ownCert = chain.Certificates()
	c.commitOwnPair()
	return nil
}

// SetOwnKey configures the private key presented for client
// authentication. Software and hardware-token keys share the same handle
// contract envelope.
func (c *Context) SetOwnKey(key types.PrivateKey) error {
	if key == nil {
		return ErrNilKey
	}
	c.ownKey = key
	c.commitOwnPair()
	return nil
}

func (c *Context) commitOwnPair() {
	if c.ownKey == nil || len(c.ownCert) == 0 {
		return
	}
	der := make([][]byte, len(c.ownCert))
	for i, cert := range c.ownCert {
		der[i] = cert.Raw
	}
	c.ownPair = &tls.Certificate{
		Certificate: der,
		PrivateKey:  c.ownKey,
		Leaf:        c.ownCert[0],
	}
}

// SetCertVerify installs a custom certificate-verification callback. The
// callback receives the leaf certificate and the opaque user context and
// decides trust for it; see VerifyCallback for the exact policy.
func (c *Context) SetCertVerify(cb VerifyCallback, userCtx any) {
	c.verifyCB = cb
	c.verifyCtx = userCtx
}

// NewEngine creates an engine bound to the peer identified by host, a
// hostname or literal IP address. The engine snapshots the context
// configuration at creation time.
func (c *Context) NewEngine(host string) *Engine {
	e := &Engine{
		ctx:      c,
		host:     host,
		ip:       net.ParseIP(host),
		sessions: &sessionCache{},
		log:      c.log,
	}

	cfg := &tls.Config{
		ServerName:            host,
		InsecureSkipVerify:    true, // all verification flows through verifyPeer
		VerifyPeerCertificate: e.verifyPeer,
		ClientSessionCache:    e.sessions,
		Renegotiation:         tls.RenegotiateFreelyAsClient,
	}
	if len(c.alpn) > 0 {
		cfg.NextProtos = append([]string(nil), c.alpn...)
	}
	if c.ownPair != nil {
		cfg.Certificates = []tls.Certificate{*c.ownPair}
	}
	e.config = cfg

	e.bridge = newBridgeConn()
	e.conn = tls.Client(e.bridge, cfg)
	return e
}
