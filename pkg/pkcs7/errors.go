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

package pkcs7

import "errors"

var (
	// ErrInvalidInput is returned when the envelope is nil or empty
	ErrInvalidInput = errors.New("pkcs7: invalid input")

	// ErrInvalidBase64 is returned when base64 decoding fails
	ErrInvalidBase64 = errors.New("pkcs7: invalid base64 encoding")

	// ErrMalformedEnvelope is returned on any structural DER mismatch
	ErrMalformedEnvelope = errors.New("pkcs7: malformed signed-data envelope")

	// ErrNotSignedData is returned when the outer content type is not the
	// signed-data identifier
	ErrNotSignedData = errors.New("pkcs7: content type is not signed-data")

	// ErrNotData is returned when the inner content type is not the data
	// identifier
	ErrNotData = errors.New("pkcs7: inner content type is not data")

	// ErrMalformedCertificate is returned when an embedded certificate
	// fails to parse
	ErrMalformedCertificate = errors.New("pkcs7: malformed certificate")
)
