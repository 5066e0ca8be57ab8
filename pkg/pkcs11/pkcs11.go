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

// Package pkcs11 loads private keys from hardware cryptographic tokens
// and exposes them through the same handle contract as software keys.
// Signing is satisfied by the token's mechanism; private key material
// never leaves the token.
//
// If the token stores a certificate object alongside the key, it is
// attached so Certificate on the resulting handle succeeds without a
// separate load.
package pkcs11

import (
	"crypto"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"io"

	"github.com/ThalesGroup/crypto11"
	"github.com/jeremyhahn/go-tlsengine/pkg/keys"
	"github.com/jeremyhahn/go-tlsengine/pkg/types"
)

// Key is a hardware-token-backed private key handle.
type Key struct {
	ctx    *crypto11.Context
	signer crypto11.Signer
	cert   *x509.Certificate
}

// LoadKey opens the token driver, authenticates with the configured PIN,
// and locates the private key object by ID or label. The matching
// public-key object on the token backs Public; a certificate object
// stored alongside the key, if any, is attached to the handle.
func LoadKey(cfg *Config) (*Key, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, err := openToken(cfg)
	if err != nil {
		return nil, err
	}

	signer, err := ctx.FindKeyPair(cfg.id(), cfg.label())
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("pkcs11: failed to find key pair: %w", err)
	}
	if signer == nil {
		ctx.Close()
		return nil, ErrKeyNotFound
	}

	key := &Key{ctx: ctx, signer: signer}
	key.attachCertificate(cfg)
	return key, nil
}

// GenerateKey requests on-token generation of an ECDSA P-256 key pair
// and returns a handle over the new private key.
func GenerateKey(cfg *Config) (*Key, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, err := openToken(cfg)
	if err != nil {
		return nil, err
	}

	signer, err := ctx.GenerateECDSAKeyPairWithLabel(cfg.id(), cfg.label(), elliptic.P256())
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("pkcs11: failed to generate key pair: %w", err)
	}

	return &Key{ctx: ctx, signer: signer}, nil
}

func openToken(cfg *Config) (*crypto11.Context, error) {
	c11cfg := &crypto11.Config{
		Path:       cfg.Library,
		TokenLabel: cfg.TokenLabel,
		SlotNumber: cfg.Slot,
		Pin:        cfg.PIN,
	}
	ctx, err := crypto11.Configure(c11cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenOpen, err)
	}
	return ctx, nil
}

// attachCertificate looks for a certificate object stored with the key.
// Best effort: a token without one simply yields a handle with no
// certificate attached.
func (k *Key) attachCertificate(cfg *Config) {
	cert, err := k.ctx.FindCertificate(cfg.id(), cfg.label(), nil)
	if err == nil && cert != nil {
		k.cert = cert
	}
}

// Public implements crypto.Signer with the token's public-key object.
func (k *Key) Public() crypto.PublicKey {
	return k.signer.Public()
}

// Sign implements crypto.Signer through the token's signing mechanism.
func (k *Key) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return k.signer.Sign(rand, digest, opts)
}

// SignData hashes data with the selected algorithm and signs the digest
// on the token.
func (k *Key) SignData(algo types.HashAlgo, data []byte) ([]byte, error) {
	h, ok := algo.Hash()
	if !ok {
		return nil, types.ErrUnsupportedHashAlgo
	}
	hasher := h.New()
	hasher.Write(data)
	return k.signer.Sign(rand.Reader, hasher.Sum(nil), h)
}

// PublicKey returns the matching public key handle.
func (k *Key) PublicKey() types.PublicKey {
	return keys.NewPublicKey(k.signer.Public())
}

// ToPEM always fails for token keys; the private key is not exportable.
func (k *Key) ToPEM() ([]byte, error) {
	return nil, types.ErrKeyNotExportable
}

// Certificate returns the certificate attached to this key handle.
func (k *Key) Certificate() (*x509.Certificate, error) {
	if k.cert == nil {
		return nil, types.ErrNoCertificate
	}
	return k.cert, nil
}

// StoreCertificate attaches a certificate to this key handle.
func (k *Key) StoreCertificate(cert *x509.Certificate) error {
	if cert == nil {
		return ErrInvalidCertificate
	}
	k.cert = cert
	return nil
}

// Close releases the token session. The handle is unusable afterwards.
func (k *Key) Close() error {
	return k.ctx.Close()
}
