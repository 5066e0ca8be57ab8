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

// Package pkcs7 parses base64-encoded PKCS#7 signed-data envelopes into
// ordered certificate chains.
//
// This is a strict, non-recursive, single-pass parse of the fixed
// structure used to carry certificate chains; signer info, signatures,
// and attributes are not processed. It is not a general PKCS#7 parser.
package pkcs7

import (
	"crypto/x509"
	encasn1 "encoding/asn1"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	oidSignedData = encasn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidData       = encasn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
)

// ParseCertificates decodes a base64 PKCS#7 signed-data envelope and
// returns the certificates it carries, in encounter order. Any
// structural mismatch aborts with a parse error; no partial chain is
// ever returned.
func ParseCertificates(pkcs7 []byte) ([]*x509.Certificate, error) {
	if len(pkcs7) == 0 {
		return nil, ErrInvalidInput
	}

	der, err := base64.StdEncoding.DecodeString(stripWhitespace(string(pkcs7)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}

	// outer SEQUENCE
	input := cryptobyte.String(der)
	var content cryptobyte.String
	if !input.ReadASN1(&content, asn1.SEQUENCE) {
		return nil, ErrMalformedEnvelope
	}

	// content type must be signed-data
	var contentType encasn1.ObjectIdentifier
	if !content.ReadASN1ObjectIdentifier(&contentType) {
		return nil, ErrMalformedEnvelope
	}
	if !contentType.Equal(oidSignedData) {
		return nil, ErrNotSignedData
	}

	// context-tagged content holding the SignedData SEQUENCE
	var wrapper, signedData cryptobyte.String
	if !content.ReadASN1(&wrapper, asn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, ErrMalformedEnvelope
	}
	if !wrapper.ReadASN1(&signedData, asn1.SEQUENCE) {
		return nil, ErrMalformedEnvelope
	}

	// version is read but not validated against a specific value
	var version int
	if !signedData.ReadASN1Integer(&version) {
		return nil, ErrMalformedEnvelope
	}

	// digest algorithm SET, skipped structurally
	var digestAlgos cryptobyte.String
	if !signedData.ReadASN1(&digestAlgos, asn1.SET) {
		return nil, ErrMalformedEnvelope
	}

	// inner content info: SEQUENCE with the data content type
	var contentInfo cryptobyte.String
	if !signedData.ReadASN1(&contentInfo, asn1.SEQUENCE) {
		return nil, ErrMalformedEnvelope
	}
	var innerType encasn1.ObjectIdentifier
	if !contentInfo.ReadASN1ObjectIdentifier(&innerType) {
		return nil, ErrMalformedEnvelope
	}
	if !innerType.Equal(oidData) {
		return nil, ErrNotData
	}

	// context-tagged wrapper with back-to-back DER certificates
	var certBlock cryptobyte.String
	if !signedData.ReadASN1(&certBlock, asn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, ErrMalformedEnvelope
	}

	var chain []*x509.Certificate
	for !certBlock.Empty() {
		// each certificate's span is its own length-prefixed SEQUENCE
		var certDER cryptobyte.String
		if !certBlock.ReadASN1Element(&certDER, asn1.SEQUENCE) {
			return nil, ErrMalformedEnvelope
		}
		cert, err := x509.ParseCertificate(certDER)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
		}
		chain = append(chain, cert)
	}

	if len(chain) == 0 {
		return nil, ErrMalformedEnvelope
	}
	return chain, nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
