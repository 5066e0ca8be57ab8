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

package types

import "errors"

var (
	// ErrUnsupportedHashAlgo is returned for hash algorithm values outside
	// the supported set, before any crypto call is made
	ErrUnsupportedHashAlgo = errors.New("types: unsupported hash algorithm")

	// ErrSignatureVerification is returned when a signature does not
	// verify. This is an expected outcome, not a malformed-input error
	ErrSignatureVerification = errors.New("types: signature verification failed")

	// ErrNoCertificate is returned by Certificate when no certificate is
	// attached to the key handle
	ErrNoCertificate = errors.New("types: no certificate attached to key")

	// ErrKeyNotExportable is returned by ToPEM on hardware-token keys
	ErrKeyNotExportable = errors.New("types: private key is not exportable")

	// ErrInvalidSubject is returned when a CSR subject attribute has an
	// empty type or value
	ErrInvalidSubject = errors.New("types: invalid subject attribute")
)
