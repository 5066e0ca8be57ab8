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

package keys

import "errors"

var (
	// ErrInvalidKeyData is returned when key material is nil or empty
	ErrInvalidKeyData = errors.New("keys: invalid key data")

	// ErrNotASigner is returned when key material does not support signing
	ErrNotASigner = errors.New("keys: key does not implement crypto.Signer")
)
