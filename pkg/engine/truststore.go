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
	"crypto/x509"
	"os"
	"sync"

	"github.com/jeremyhahn/go-tlsengine/pkg/logging"
)

// caBundleFiles are the well-known system CA bundle locations, probed in
// order when a context is created without explicit trust anchors. The
// first readable file wins.
var caBundleFiles = []string{
	"/etc/ssl/certs/ca-certificates.crt",                // Debian/Ubuntu/Gentoo etc.
	"/etc/pki/tls/certs/ca-bundle.crt",                  // Fedora/RHEL 6
	"/etc/ssl/ca-bundle.pem",                            // OpenSUSE
	"/etc/pki/tls/cacert.pem",                           // OpenELEC
	"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem", // CentOS/RHEL 7
	"/etc/ssl/cert.pem",                                 // macOS
}

var (
	debugOnce    sync.Once
	debugEnabled bool
)

// tlsDebug reports whether TLSENGINE_DEBUG was set in the environment.
// The variable is read once, at first context construction.
func tlsDebug() bool {
	debugOnce.Do(func() {
		debugEnabled = os.Getenv("TLSENGINE_DEBUG") != ""
	})
	return debugEnabled
}

// systemRoots probes the CA bundle list and parses the first readable
// file into a certificate pool. Absence of every file is not an error; it
// yields an empty trust anchor set.
func systemRoots(log *logging.Logger) *x509.CertPool {
	pool := x509.NewCertPool()
	for _, path := range caBundleFiles {
		pem, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if !pool.AppendCertsFromPEM(pem) {
			log.Warnf("engine: no usable certificates in %s", path)
			continue
		}
		log.Debugf("engine: loaded system CA bundle %s", path)
		return pool
	}
	log.Debugf("engine: no system CA bundle found")
	return pool
}
