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

import (
	"fmt"
	"os"

	"crypto/x509"

	"github.com/jeremyhahn/go-tlsengine/pkg/encoding"
)

// CertificateChain is an ordered sequence of one or more certificates,
// leaf first. Order is preserved as discovered; no validation beyond a
// syntactic parse is performed at load time.
type CertificateChain struct {
	certs []*x509.Certificate
}

// NewCertificateChain builds a chain from already-parsed certificates.
func NewCertificateChain(certs []*x509.Certificate) (*CertificateChain, error) {
	if len(certs) == 0 {
		return nil, encoding.ErrInvalidCertificate
	}
	return &CertificateChain{certs: certs}, nil
}

// LoadCertificates creates a chain from PEM or DER certificate material.
// When the buffer does not parse it is treated as a file path and loaded
// from disk.
func LoadCertificates(data []byte) (*CertificateChain, error) {
	if len(data) == 0 {
		return nil, encoding.ErrInvalidData
	}

	certs, err := encoding.DecodeCertificates(data)
	if err != nil {
		fileData, readErr := os.ReadFile(string(data))
		if readErr != nil {
			return nil, fmt.Errorf("keys: failed to load certificate: %w", err)
		}
		certs, err = encoding.DecodeCertificates(fileData)
		if err != nil {
			return nil, fmt.Errorf("keys: failed to load certificate file: %w", err)
		}
	}

	return &CertificateChain{certs: certs}, nil
}

// Leaf returns the first certificate in the chain.
func (c *CertificateChain) Leaf() *x509.Certificate {
	return c.certs[0]
}

// Certificates returns the chain in original order.
func (c *CertificateChain) Certificates() []*x509.Certificate {
	return c.certs
}

// Len returns the number of certificates in the chain.
func (c *CertificateChain) Len() int {
	return len(c.certs)
}

// ToPEM serializes the chain. With fullChain true every certificate is
// written in original order; otherwise only the leaf.
func (c *CertificateChain) ToPEM(fullChain bool) ([]byte, error) {
	if fullChain {
		return encoding.EncodeCertificateChainPEM(c.certs)
	}
	return encoding.EncodeCertificatePEM(c.certs[0])
}
