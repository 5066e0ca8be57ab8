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

package engine

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jeremyhahn/go-tlsengine/pkg/types"
)

// VerifyCallback decides trust for the leaf (peer) certificate. A nil
// return accepts the certificate; any error rejects it. When a callback
// is installed, trust-chain judgment is delegated to it entirely:
// intermediate untrust is cleared automatically and the callback's
// verdict applies to the leaf alone. Validity failures the stack detected
// independently, such as expiry, remain fatal regardless.
type VerifyCallback func(cert *x509.Certificate, userCtx any) error

// verdict is the outcome of the base certificate checks, expressed as the
// two flags this verifier owns plus anything it does not. Corrections
// operate on a verdict value and return a new one; the underlying
// validation state is never mutated mid-walk.
type verdict struct {
	nameMismatch bool
	untrusted    bool
	fatal        error
}

func (v verdict) err() error {
	if v.fatal != nil {
		return v.fatal
	}
	if v.untrusted {
		return ErrUntrustedCertificate
	}
	if v.nameMismatch {
		return ErrNameMismatch
	}
	return nil
}

// baseVerdict runs the stack's built-in checks: leaf validity window,
// chain path validation against the configured roots, and hostname
// matching. IP-literal targets always start flagged as a name mismatch
// because the base stack does not compare them against IP SANs; the patch
// in correctVerdict handles that case.
func baseVerdict(certs []*x509.Certificate, roots *x509.CertPool, host string, ip net.IP, now time.Time) verdict {
	var v verdict
	leaf := certs[0]

	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		v.fatal = fmt.Errorf("%w: valid %s to %s",
			ErrCertificateExpired,
			leaf.NotBefore.Format(time.RFC3339), leaf.NotAfter.Format(time.RFC3339))
		return v
	}

	intermediates := x509.NewCertPool()
	for _, cert := range certs[1:] {
		intermediates.AddCert(cert)
	}
	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   now,
	})
	if err != nil {
		var unknownAuthority x509.UnknownAuthorityError
		if errors.As(err, &unknownAuthority) {
			v.untrusted = true
		} else {
			v.fatal = err
			return v
		}
	}

	if ip != nil {
		v.nameMismatch = true
	} else if err := leaf.VerifyHostname(host); err != nil {
		v.nameMismatch = true
	}
	return v
}

// correctVerdict applies the two corrections layered on the base checks:
// the IP SAN patch at the leaf, and the verify callback override. Only
// the flags this verifier owns are touched.
func correctVerdict(v verdict, leaf *x509.Certificate, ip net.IP, cb VerifyCallback, userCtx any) verdict {
	if v.nameMismatch && ip != nil {
		for _, san := range leaf.IPAddresses {
			if ipBytesEqual(san, ip) {
				v.nameMismatch = false
				break
			}
		}
	}

	if cb != nil {
		if err := cb(leaf, userCtx); err == nil {
			v.untrusted = false
		} else {
			v.untrusted = true
		}
	}
	return v
}

// ipBytesEqual compares two addresses byte for byte in their canonical
// 4-byte or 16-byte forms. A v4 address never matches a v6 SAN entry.
func ipBytesEqual(a, b net.IP) bool {
	a4, b4 := a.To4(), b.To4()
	if a4 != nil && b4 != nil {
		return bytes.Equal(a4, b4)
	}
	if a4 == nil && b4 == nil {
		return bytes.Equal(a.To16(), b.To16())
	}
	return false
}

// verifyPeer is installed as crypto/tls's VerifyPeerCertificate hook with
// built-in verification disabled, so every trust decision flows through
// the verdict pipeline above.
func (e *Engine) verifyPeer(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return types.ErrNoCertificate
	}
	certs := make([]*x509.Certificate, 0, len(rawCerts))
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
		}
		certs = append(certs, cert)
	}

	v := baseVerdict(certs, e.ctx.roots, e.host, e.ip, time.Now())
	v = correctVerdict(v, certs[0], e.ip, e.ctx.verifyCB, e.ctx.verifyCtx)
	if err := v.err(); err != nil {
		e.log.Errorf("engine: certificate verification failed for %s: %v", e.host, err)
		return err
	}
	return nil
}
