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

import "errors"

var (
	// ErrInvalidTrustAnchors is returned when the supplied trust anchor
	// material does not parse as PEM or DER certificates.
	ErrInvalidTrustAnchors = errors.New("engine: invalid trust anchor material")

	// ErrInvalidCertificate is returned when own-certificate material does
	// not parse. Prior context configuration is left unchanged.
	ErrInvalidCertificate = errors.New("engine: invalid certificate material")

	// ErrNilKey is returned when a nil private key is supplied.
	ErrNilKey = errors.New("engine: nil private key")

	// ErrHandshakeNotComplete is returned by record operations invoked
	// before the handshake reached the complete state.
	ErrHandshakeNotComplete = errors.New("engine: handshake not complete")

	// ErrUntrustedCertificate reports a peer chain that does not lead to a
	// configured trust anchor.
	ErrUntrustedCertificate = errors.New("engine: certificate not trusted")

	// ErrNameMismatch reports a peer certificate that does not cover the
	// target hostname or IP address.
	ErrNameMismatch = errors.New("engine: certificate name mismatch")

	// ErrCertificateExpired reports a peer certificate outside its
	// validity window. This stays fatal regardless of any verify callback.
	ErrCertificateExpired = errors.New("engine: certificate expired or not yet valid")
)
