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

//go:build pkcs11

package pkcs11

import (
	"errors"

	p11 "github.com/miekg/pkcs11"
)

var (
	// ErrInvalidConfig is returned when the configuration is nil
	ErrInvalidConfig = errors.New("pkcs11: invalid configuration")

	// ErrLibraryRequired is returned when no driver library path is set
	ErrLibraryRequired = errors.New("pkcs11: token library path required")

	// ErrTokenRequired is returned when neither token label nor slot is set
	ErrTokenRequired = errors.New("pkcs11: token label or slot required")

	// ErrKeyIDRequired is returned when neither key ID nor label is set
	ErrKeyIDRequired = errors.New("pkcs11: key id or label required")

	// ErrTokenOpen is returned when the driver cannot be loaded or the
	// session cannot be authenticated
	ErrTokenOpen = errors.New("pkcs11: failed to open token")

	// ErrKeyNotFound is returned when no key object matches the id/label
	ErrKeyNotFound = errors.New("pkcs11: key object not found")

	// ErrInvalidCertificate is returned when a certificate is nil
	ErrInvalidCertificate = errors.New("pkcs11: invalid certificate")
)

// Strerror returns the token-specific error string for a CKR return
// value. This error space is distinct from the engine's result codes.
func Strerror(rv uint) string {
	return p11.Error(rv).Error()
}
