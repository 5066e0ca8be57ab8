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

// Package keys provides software-backed private key and certificate
// handles for the TLS engine. Keys are generated in memory or loaded
// from PEM/DER buffers or files; each handle is exclusively owned by
// whichever context or store holds it.
//
// Hardware-token keys expose the same contract through the pkcs11
// package.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"io"
	"os"

	"github.com/jeremyhahn/go-tlsengine/pkg/encoding"
	"github.com/jeremyhahn/go-tlsengine/pkg/types"
	"github.com/jeremyhahn/go-tlsengine/pkg/verification"
)

// Key is a software-backed private key handle.
type Key struct {
	signer crypto.Signer
	cert   *x509.Certificate
}

// Generate creates a new ECDSA P-256 private key.
func Generate() (*Key, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: failed to generate key: %w", err)
	}
	return &Key{signer: priv}, nil
}

// Load creates a key handle from PEM or DER key material. When the
// buffer does not parse as key material it is treated as a file path and
// loaded from disk.
func Load(data []byte) (*Key, error) {
	return LoadWithPassword(data, nil)
}

// LoadWithPassword is Load for encrypted PKCS#8 key material.
func LoadWithPassword(data, password []byte) (*Key, error) {
	if len(data) == 0 {
		return nil, ErrInvalidKeyData
	}

	priv, err := decodeAny(data, password)
	if err != nil {
		fileData, readErr := os.ReadFile(string(data))
		if readErr != nil {
			return nil, fmt.Errorf("keys: failed to load key: %w", err)
		}
		priv, err = decodeAny(fileData, password)
		if err != nil {
			return nil, fmt.Errorf("keys: failed to load key file: %w", err)
		}
	}

	signer, ok := priv.(crypto.Signer)
	if !ok {
		return nil, ErrNotASigner
	}
	return &Key{signer: signer}, nil
}

// FromSigner wraps an existing crypto.Signer as a key handle.
func FromSigner(signer crypto.Signer) (*Key, error) {
	if signer == nil {
		return nil, ErrNotASigner
	}
	return &Key{signer: signer}, nil
}

func decodeAny(data, password []byte) (crypto.PrivateKey, error) {
	if key, err := encoding.DecodePrivateKeyPEM(data, password); err == nil {
		return key, nil
	}
	return encoding.DecodePrivateKeyDER(data, password)
}

// Public implements crypto.Signer.
func (k *Key) Public() crypto.PublicKey {
	return k.signer.Public()
}

// Sign implements crypto.Signer, delegating to the underlying key.
func (k *Key) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return k.signer.Sign(rand, digest, opts)
}

// SignData hashes data with the selected algorithm and signs the digest.
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
	return &PublicKey{pub: k.signer.Public()}
}

// ToPEM serializes the private key to unencrypted PKCS#8 PEM.
func (k *Key) ToPEM() ([]byte, error) {
	return encoding.EncodePrivateKeyPEM(k.signer, nil)
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
		return encoding.ErrInvalidCertificate
	}
	k.cert = cert
	return nil
}

// PublicKey is a software-backed public key handle.
type PublicKey struct {
	pub crypto.PublicKey
}

// NewPublicKey wraps a crypto.PublicKey as a public key handle.
func NewPublicKey(pub crypto.PublicKey) *PublicKey {
	return &PublicKey{pub: pub}
}

// Verify hashes data and verifies the signature against it.
func (p *PublicKey) Verify(algo types.HashAlgo, data, sig []byte) error {
	return verification.VerifyWithPublicKey(p.pub, algo, data, sig)
}

// ToPEM serializes the public key in PKIX PEM form.
func (p *PublicKey) ToPEM() ([]byte, error) {
	return encoding.EncodePublicKeyPEM(p.pub)
}
