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

// Package types defines the contracts shared by every TLS engine
// implementation: the result code space, handshake states, hash algorithm
// selection, and the opaque key handle interfaces satisfied by both
// software keys and hardware-token keys.
package types

import (
	"crypto"
	"crypto/x509"
)

// Result is the uniform code space returned by engine record operations.
// Negative values other than Err are not errors; they are state-machine
// classifications the caller must branch on to keep driving the engine.
type Result int

const (
	// OK indicates the operation completed; nothing more is pending.
	OK Result = 0

	// Err indicates a fatal protocol error. The underlying code is
	// retained by the engine for Strerror lookup.
	Err Result = -1

	// EOF indicates the peer sent a close notify; the stream has ended.
	EOF Result = -2

	// ReadAgain indicates more inbound ciphertext is needed before any
	// progress can be made.
	ReadAgain Result = -3

	// MoreAvailable indicates plaintext remains buffered; the caller
	// should invoke Read again immediately without waiting on the network.
	MoreAvailable Result = -4

	// HasWrite indicates the outbound bridge holds bytes that must be
	// flushed to the peer.
	HasWrite Result = -5
)

// String returns a human-readable description of the result code.
func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case Err:
		return "tls error"
	case EOF:
		return "end of stream"
	case ReadAgain:
		return "need more input"
	case MoreAvailable:
		return "more data available"
	case HasWrite:
		return "has pending write"
	default:
		return "unknown result code"
	}
}

// HandshakeState describes the engine handshake progression.
type HandshakeState int

const (
	// HandshakeBefore means no handshake activity has happened yet.
	HandshakeBefore HandshakeState = iota

	// HandshakeContinue means the handshake needs more round trips.
	HandshakeContinue

	// HandshakeComplete means application data may flow.
	HandshakeComplete

	// HandshakeError is terminal; the engine is inert until Reset.
	HandshakeError
)

// String returns a human-readable description of the handshake state.
func (s HandshakeState) String() string {
	switch s {
	case HandshakeBefore:
		return "before"
	case HandshakeContinue:
		return "continue"
	case HandshakeComplete:
		return "complete"
	case HandshakeError:
		return "error"
	default:
		return "unknown"
	}
}

// HashAlgo selects the digest used for sign and verify operations.
type HashAlgo int

const (
	SHA256 HashAlgo = iota
	SHA384
	SHA512
)

// Hash maps the algorithm to its crypto.Hash. The second return value is
// false for unsupported values, which callers must treat as an immediate
// failure before any crypto call.
func (h HashAlgo) Hash() (crypto.Hash, bool) {
	switch h {
	case SHA256:
		return crypto.SHA256, true
	case SHA384:
		return crypto.SHA384, true
	case SHA512:
		return crypto.SHA512, true
	default:
		return 0, false
	}
}

// PrivateKey is an opaque private key handle, polymorphic over software
// keys and hardware-token keys. Hardware-backed implementations satisfy
// Sign through the token's signing mechanism; the key material never
// leaves the token.
type PrivateKey interface {
	crypto.Signer

	// SignData hashes data with the selected algorithm and signs the digest.
	SignData(algo HashAlgo, data []byte) ([]byte, error)

	// PublicKey returns the matching public key handle.
	PublicKey() PublicKey

	// ToPEM serializes the private key. Token-backed keys return
	// ErrKeyNotExportable.
	ToPEM() ([]byte, error)

	// Certificate returns the certificate attached to this key, or
	// ErrNoCertificate when none is attached. Hardware tokens may carry a
	// certificate object alongside the key.
	Certificate() (*x509.Certificate, error)

	// StoreCertificate attaches a certificate to this key handle.
	StoreCertificate(cert *x509.Certificate) error
}

// PublicKey is an opaque public key handle.
type PublicKey interface {
	// Verify hashes data with the selected algorithm and verifies the
	// signature against it. A verification failure is an expected outcome,
	// reported as ErrSignatureVerification.
	Verify(algo HashAlgo, data, sig []byte) error

	// ToPEM serializes the public key in PKIX PEM form.
	ToPEM() ([]byte, error)
}

// SubjectAttribute is one ordered subject name component for CSR
// generation, e.g. {"CN", "client-01"} or {"O", "Example Corp"}.
// Empty Type or Value strings are rejected.
type SubjectAttribute struct {
	Type  string
	Value string
}
