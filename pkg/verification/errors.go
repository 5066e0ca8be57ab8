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

package verification

import "errors"

var (
	// ErrInvalidCertificate is returned when the certificate is nil
	ErrInvalidCertificate = errors.New("verification: invalid certificate")

	// ErrInvalidPublicKey is returned for unsupported public key types
	ErrInvalidPublicKey = errors.New("verification: invalid public key")

	// ErrInvalidSignatureEncoding is returned when a signature cannot be
	// interpreted as a raw r‖s concatenation
	ErrInvalidSignatureEncoding = errors.New("verification: invalid signature encoding")
)
