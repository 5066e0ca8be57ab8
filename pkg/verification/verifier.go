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

// Package verification hashes application data and verifies signatures
// against certificate public keys.
//
// Elliptic-curve verification accepts both signature encodings in the
// wild: the structured ASN.1 SEQUENCE form used by crypto libraries, and
// the fixed-width raw r‖s concatenation produced by hardware tokens and
// many callers. When direct verification of an EC signature fails, the
// raw form is re-encoded into the structured form and verified once more.
// This retry is a format-compatibility shim, not a resilience mechanism;
// nothing else is retried.
package verification

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"math/big"

	"github.com/jeremyhahn/go-tlsengine/pkg/types"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Verifier verifies signatures over application data using a
// certificate's public key. Verification returns accept or reject only;
// a reject is an expected outcome the caller branches on.
type Verifier interface {
	// Verify hashes data with the selected algorithm and verifies the
	// signature against the certificate's public key. An unsupported hash
	// algorithm fails immediately, before any crypto call.
	Verify(cert *x509.Certificate, algo types.HashAlgo, data, sig []byte) error
}

type verify struct{}

// NewVerifier creates a new Verifier instance.
func NewVerifier() Verifier {
	return &verify{}
}

// Verify implements the Verifier interface.
func (v *verify) Verify(cert *x509.Certificate, algo types.HashAlgo, data, sig []byte) error {
	if cert == nil {
		return ErrInvalidCertificate
	}
	return VerifyWithPublicKey(cert.PublicKey, algo, data, sig)
}

// VerifyWithPublicKey hashes data and verifies the signature directly
// against a public key. See the package documentation for the EC
// signature encoding fallback.
func VerifyWithPublicKey(pub crypto.PublicKey, algo types.HashAlgo, data, sig []byte) error {
	h, ok := algo.Hash()
	if !ok {
		return types.ErrUnsupportedHashAlgo
	}

	hasher := h.New()
	hasher.Write(data)
	digest := hasher.Sum(nil)

	switch key := pub.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(key, h, digest, sig); err != nil {
			return types.ErrSignatureVerification
		}
		return nil

	case *ecdsa.PublicKey:
		if ecdsa.VerifyASN1(key, digest, sig) {
			return nil
		}
		// Retry once treating sig as raw r‖s.
		asn1sig, err := rawSignatureToASN1(sig)
		if err != nil {
			return types.ErrSignatureVerification
		}
		if ecdsa.VerifyASN1(key, digest, asn1sig) {
			return nil
		}
		return types.ErrSignatureVerification

	case ed25519.PublicKey:
		if !ed25519.Verify(key, data, sig) {
			return types.ErrSignatureVerification
		}
		return nil

	default:
		return ErrInvalidPublicKey
	}
}

// rawSignatureToASN1 re-encodes a fixed-width raw (r‖s) elliptic-curve
// signature as the ASN.1 SEQUENCE of two INTEGERs the crypto library
// verifies. The raw signature is split at its midpoint into two
// equal-length big-endian integers.
func rawSignatureToASN1(sig []byte) ([]byte, error) {
	if len(sig) == 0 || len(sig)%2 != 0 {
		return nil, ErrInvalidSignatureEncoding
	}

	coordLen := len(sig) / 2
	r := new(big.Int).SetBytes(sig[:coordLen])
	s := new(big.Int).SetBytes(sig[coordLen:])

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(child *cryptobyte.Builder) {
		child.AddASN1BigInt(r)
		child.AddASN1BigInt(s)
	})
	return b.Bytes()
}
