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

package encoding

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/youmark/pkcs8"
)

// EncodePrivateKeyPEM encodes a private key to PKCS#8 PEM format.
// If a password is provided the key is encrypted and the block type is
// ENCRYPTED PRIVATE KEY; otherwise PRIVATE KEY.
func EncodePrivateKeyPEM(privateKey crypto.PrivateKey, password []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrInvalidPrivateKey
	}

	der, err := pkcs8.MarshalPrivateKey(privateKey, password, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal PKCS#8: %w", err)
	}

	blockType := PEMTypePrivateKey
	if len(password) > 0 {
		blockType = PEMTypeEncryptedPrivateKey
	}

	block := &pem.Block{
		Type:  blockType,
		Bytes: der,
	}

	var buf bytes.Buffer
	if err := pem.Encode(&buf, block); err != nil {
		return nil, fmt.Errorf("failed to encode PEM: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodePrivateKeyPEM decodes PEM encoded private key material. The block
// type selects the parser: PKCS#1 (RSA PRIVATE KEY), SEC1 (EC PRIVATE
// KEY), or PKCS#8, with an optional password for encrypted PKCS#8 blocks.
func DecodePrivateKeyPEM(data, password []byte) (crypto.PrivateKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMEncoding
	}

	switch block.Type {
	case PEMTypeRSAPrivateKey:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#1 key: %w", err)
		}
		return key, nil
	case PEMTypeECPrivateKey:
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EC key: %w", err)
		}
		return key, nil
	default:
		return DecodePrivateKeyDER(block.Bytes, password)
	}
}

// DecodePrivateKeyDER decodes DER encoded PKCS#8 private key material,
// decrypting with the password when the input is encrypted.
func DecodePrivateKeyDER(der, password []byte) (crypto.PrivateKey, error) {
	if len(der) == 0 {
		return nil, ErrInvalidData
	}

	var key interface{}
	var err error
	if len(password) > 0 {
		key, err = pkcs8.ParsePKCS8PrivateKey(der, password)
	} else {
		key, err = pkcs8.ParsePKCS8PrivateKey(der)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#8: %w", err)
	}

	privKey, ok := key.(crypto.PrivateKey)
	if !ok {
		return nil, ErrInvalidPrivateKey
	}

	return privKey, nil
}
