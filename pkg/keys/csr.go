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
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"strings"

	pkgencoding "github.com/jeremyhahn/go-tlsengine/pkg/encoding"
	"github.com/jeremyhahn/go-tlsengine/pkg/types"
)

// Subject attribute types accepted by GenerateCSR.
var subjectOIDs = map[string]asn1.ObjectIdentifier{
	"CN":           {2, 5, 4, 3},
	"C":            {2, 5, 4, 6},
	"L":            {2, 5, 4, 7},
	"ST":           {2, 5, 4, 8},
	"STREET":       {2, 5, 4, 9},
	"O":            {2, 5, 4, 10},
	"OU":           {2, 5, 4, 11},
	"DC":           {0, 9, 2342, 19200300, 100, 1, 25},
	"UID":          {0, 9, 2342, 19200300, 100, 1, 1},
	"emailAddress": {1, 2, 840, 113549, 1, 9, 1},
}

// GenerateCSR creates a PEM encoded certificate signing request for the
// key, with the subject name built from the supplied attribute pairs in
// order. Attributes with empty type or value strings, and types outside
// the accepted set, are rejected. The request is signed with SHA-256.
func GenerateCSR(key types.PrivateKey, subject []types.SubjectAttribute) ([]byte, error) {
	if key == nil {
		return nil, ErrNotASigner
	}
	if len(subject) == 0 {
		return nil, types.ErrInvalidSubject
	}

	rawSubject, err := marshalSubject(subject)
	if err != nil {
		return nil, err
	}

	tmpl := &x509.CertificateRequest{
		RawSubject:         rawSubject,
		SignatureAlgorithm: csrSignatureAlgorithm(key),
	}

	der, err := x509.CreateCertificateRequest(rand.Reader, tmpl, key)
	if err != nil {
		return nil, fmt.Errorf("keys: failed to create CSR: %w", err)
	}

	var buf bytes.Buffer
	block := &pem.Block{
		Type:  pkgencoding.PEMTypeCertificateRequest,
		Bytes: der,
	}
	if err := pem.Encode(&buf, block); err != nil {
		return nil, fmt.Errorf("keys: failed to encode CSR PEM: %w", err)
	}

	return buf.Bytes(), nil
}

// SubjectString renders subject attributes the way they appear in a
// distinguished name: type=value pairs joined by commas, in order.
func SubjectString(subject []types.SubjectAttribute) string {
	parts := make([]string, 0, len(subject))
	for _, attr := range subject {
		parts = append(parts, attr.Type+"="+attr.Value)
	}
	return strings.Join(parts, ",")
}

func marshalSubject(subject []types.SubjectAttribute) ([]byte, error) {
	var rdns pkix.RDNSequence
	for _, attr := range subject {
		if attr.Type == "" || attr.Value == "" {
			return nil, types.ErrInvalidSubject
		}
		oid, ok := subjectOIDs[attr.Type]
		if !ok {
			return nil, fmt.Errorf("%w: unknown attribute type %q", types.ErrInvalidSubject, attr.Type)
		}
		rdns = append(rdns, []pkix.AttributeTypeAndValue{{
			Type:  oid,
			Value: attr.Value,
		}})
	}

	der, err := asn1.Marshal(rdns)
	if err != nil {
		return nil, fmt.Errorf("keys: failed to marshal subject: %w", err)
	}
	return der, nil
}

func csrSignatureAlgorithm(key types.PrivateKey) x509.SignatureAlgorithm {
	switch key.Public().(type) {
	case *rsa.PublicKey:
		return x509.SHA256WithRSA
	case *ecdsa.PublicKey:
		return x509.ECDSAWithSHA256
	default:
		return x509.UnknownSignatureAlgorithm
	}
}
