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

// Config identifies a key on a PKCS#11 token.
type Config struct {
	// Library is the path to the PKCS#11 driver shared object.
	Library string

	// TokenLabel selects the token by label. Either TokenLabel or Slot
	// must be set.
	TokenLabel string

	// Slot selects the token by slot number.
	Slot *int

	// PIN authenticates the session.
	PIN string

	// KeyID locates the key object by CKA_ID. Either KeyID or KeyLabel
	// must be set for LoadKey; GenerateKey requires at least one to
	// assign to the new objects.
	KeyID string

	// KeyLabel locates the key object by CKA_LABEL.
	KeyLabel string
}

// Validate checks that the configuration can address a token and a key.
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.Library == "" {
		return ErrLibraryRequired
	}
	if c.TokenLabel == "" && c.Slot == nil {
		return ErrTokenRequired
	}
	if c.KeyID == "" && c.KeyLabel == "" {
		return ErrKeyIDRequired
	}
	return nil
}

func (c *Config) id() []byte {
	if c.KeyID == "" {
		return nil
	}
	return []byte(c.KeyID)
}

func (c *Config) label() []byte {
	if c.KeyLabel == "" {
		return nil
	}
	return []byte(c.KeyLabel)
}
