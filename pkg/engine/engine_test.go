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
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-tlsengine/pkg/keys"
	"github.com/jeremyhahn/go-tlsengine/pkg/types"
)

const shuttleTimeout = 5 * time.Second

func newTestCA(t *testing.T) (*x509.Certificate, *ecdsa.PrivateKey, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test root"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return cert, key, caPEM
}

// issueCert creates a leaf certificate signed by the CA, or self-signed
// when ca is nil.
func issueCert(t *testing.T, ca *x509.Certificate, caKey *ecdsa.PrivateKey,
	usage x509.ExtKeyUsage, dnsNames []string, ips []net.IP) (tls.Certificate, []byte) {

	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "test leaf"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{usage},
		DNSNames:     dnsNames,
		IPAddresses:  ips,
	}
	parent, signer := ca, crypto.Signer(caKey)
	if ca == nil {
		parent, signer = tmpl, key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, signer)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, certPEM
}

// startServer runs a crypto/tls server over one side of an in-memory
// pipe and returns the raw client side plus a channel delivering the
// ciphertext the server produced. The engine under test never touches a
// socket; every byte is shuttled by hand.
func startServer(t *testing.T, cfg *tls.Config, handler func(*tls.Conn)) (net.Conn, <-chan []byte) {
	t.Helper()
	serverSide, clientRaw := net.Pipe()
	srv := tls.Server(serverSide, cfg)
	go func() {
		defer serverSide.Close()
		if err := srv.Handshake(); err != nil {
			return
		}
		if handler != nil {
			handler(srv)
		}
	}()

	in := make(chan []byte, 64)
	go func() {
		defer close(in)
		for {
			buf := make([]byte, 64*1024)
			n, err := clientRaw.Read(buf)
			if n > 0 {
				in <- buf[:n]
			}
			if err != nil {
				return
			}
		}
	}()
	return clientRaw, in
}

func echoHandler(conn *tls.Conn) {
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// driveHandshake shuttles handshake flights between the engine and the
// server until the engine leaves the continue state.
func driveHandshake(t *testing.T, eng *Engine, raw net.Conn, in <-chan []byte) types.HandshakeState {
	t.Helper()
	out := make([]byte, 64*1024)
	state, n := eng.Handshake(nil, out)
	for state == types.HandshakeContinue {
		if n > 0 {
			if _, err := raw.Write(out[:n]); err != nil {
				t.Fatalf("transport write failed: %v", err)
			}
		}
		select {
		case data, ok := <-in:
			if !ok {
				state, n = eng.Handshake(nil, out)
				if state == types.HandshakeContinue {
					t.Fatal("transport closed mid-handshake")
				}
				continue
			}
			state, n = eng.Handshake(data, out)
		case <-time.After(shuttleTimeout):
			t.Fatal("handshake timed out")
		}
	}
	if n > 0 {
		_, _ = raw.Write(out[:n])
	}
	return state
}

// sendAll wraps data into records and shuttles every produced ciphertext
// byte to the server, draining across repeated calls.
func sendAll(t *testing.T, eng *Engine, raw net.Conn, data []byte, out []byte) {
	t.Helper()
	n, pending, err := eng.Write(data, out)
	require.NoError(t, err)
	for {
		if n > 0 {
			_, werr := raw.Write(out[:n])
			require.NoError(t, werr)
		}
		if pending == 0 {
			return
		}
		n, pending, err = eng.Write(nil, out)
		require.NoError(t, err)
	}
}

// recvAll unwraps plaintext from the engine until want bytes arrived.
func recvAll(t *testing.T, eng *Engine, raw net.Conn, in <-chan []byte, want int) []byte {
	t.Helper()
	out := make([]byte, 64*1024)
	wbuf := make([]byte, 64*1024)
	var got []byte
	var data []byte
	for {
		n, res := eng.Read(data, out)
		data = nil
		got = append(got, out[:n]...)
		switch res {
		case types.MoreAvailable:
			continue
		case types.HasWrite:
			wn, _, err := eng.Write(nil, wbuf)
			require.NoError(t, err)
			if wn > 0 {
				_, _ = raw.Write(wbuf[:wn])
			}
			continue
		case types.OK:
			if len(got) >= want {
				return got
			}
			select {
			case d, ok := <-in:
				if !ok {
					t.Fatalf("transport closed with %d of %d bytes received", len(got), want)
				}
				data = d
			case <-time.After(shuttleTimeout):
				t.Fatalf("read timed out with %d of %d bytes received", len(got), want)
			}
		case types.EOF:
			t.Fatal("unexpected end of stream")
		case types.Err:
			t.Fatalf("read failed: %s", eng.Strerror())
		}
	}
}

func trustedSetup(t *testing.T, alpn []string) (*Context, *tls.Config) {
	t.Helper()
	ca, caKey, caPEM := newTestCA(t)
	serverCert, _ := issueCert(t, ca, caKey, x509.ExtKeyUsageServerAuth, []string{"localhost"}, nil)
	serverCfg := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		NextProtos:   alpn,
	}

	ctx, err := NewContext(TrustConfig{CA: caPEM})
	require.NoError(t, err)
	if len(alpn) > 0 {
		ctx.SetALPNProtocols(alpn)
	}
	return ctx, serverCfg
}

func TestHandshakeAndEcho(t *testing.T) {
	ctx, serverCfg := trustedSetup(t, []string{"echo/1"})
	raw, in := startServer(t, serverCfg, echoHandler)
	defer raw.Close()

	eng := ctx.NewEngine("localhost")
	assert.Equal(t, types.HandshakeBefore, eng.HandshakeState())

	state := driveHandshake(t, eng, raw, in)
	require.Equal(t, types.HandshakeComplete, state)
	assert.Equal(t, types.HandshakeComplete, eng.HandshakeState())
	assert.Equal(t, "echo/1", eng.ALPN())
	assert.Equal(t, "ok", eng.Strerror())

	out := make([]byte, 32*1024)
	sendAll(t, eng, raw, []byte("hello over tls"), out)
	got := recvAll(t, eng, raw, in, len("hello over tls"))
	assert.Equal(t, []byte("hello over tls"), got[:len("hello over tls")])
}

func TestMutualTLS(t *testing.T) {
	ca, caKey, caPEM := newTestCA(t)
	serverCert, _ := issueCert(t, ca, caKey, x509.ExtKeyUsageServerAuth, []string{"localhost"}, nil)

	clientKey, err := keys.Generate()
	require.NoError(t, err)
	clientCertPEM := issueCertFor(t, ca, caKey, clientKey.Public(), x509.ExtKeyUsageClientAuth)

	clientPool := x509.NewCertPool()
	clientPool.AddCert(ca)
	serverCfg := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    clientPool,
	}

	ctx, err := NewContext(TrustConfig{CA: caPEM})
	require.NoError(t, err)

	// the client pairing is committed in either order
	require.NoError(t, ctx.SetOwnKey(clientKey))
	require.NoError(t, ctx.SetOwnCert(clientCertPEM))

	raw, in := startServer(t, serverCfg, echoHandler)
	defer raw.Close()

	eng := ctx.NewEngine("localhost")
	state := driveHandshake(t, eng, raw, in)
	require.Equal(t, types.HandshakeComplete, state)
}

// issueCertFor signs a certificate over an externally held public key.
func issueCertFor(t *testing.T, ca *x509.Certificate, caKey *ecdsa.PrivateKey, pub crypto.PublicKey, usage x509.ExtKeyUsage) []byte {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "test client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{usage},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca, pub, caKey)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestHandshakeUntrustedWithoutCallback(t *testing.T) {
	serverCert, _ := issueCert(t, nil, nil, x509.ExtKeyUsageServerAuth, nil, []net.IP{net.ParseIP("10.0.0.5")})
	serverCfg := &tls.Config{Certificates: []tls.Certificate{serverCert}}
	raw, in := startServer(t, serverCfg, nil)
	defer raw.Close()

	ctx, err := NewContext(TrustConfig{})
	require.NoError(t, err)
	eng := ctx.NewEngine("10.0.0.5")

	state := driveHandshake(t, eng, raw, in)
	require.Equal(t, types.HandshakeError, state)
	assert.ErrorIs(t, eng.Err(), ErrUntrustedCertificate)
	assert.NotEqual(t, "ok", eng.Strerror())
}

func TestHandshakeIPSANWithCallback(t *testing.T) {
	serverCert, _ := issueCert(t, nil, nil, x509.ExtKeyUsageServerAuth, nil, []net.IP{net.ParseIP("10.0.0.5")})
	serverCfg := &tls.Config{Certificates: []tls.Certificate{serverCert}}
	raw, in := startServer(t, serverCfg, echoHandler)
	defer raw.Close()

	ctx, err := NewContext(TrustConfig{})
	require.NoError(t, err)
	var seenCtx any
	ctx.SetCertVerify(func(cert *x509.Certificate, userCtx any) error {
		seenCtx = userCtx
		require.NotNil(t, cert)
		return nil
	}, "user-data")

	eng := ctx.NewEngine("10.0.0.5")
	state := driveHandshake(t, eng, raw, in)
	require.Equal(t, types.HandshakeComplete, state)
	assert.Equal(t, "user-data", seenCtx)
}

func TestHandshakeIPSANMismatch(t *testing.T) {
	// SAN is 10.0.0.5; the target differs in the last byte
	serverCert, _ := issueCert(t, nil, nil, x509.ExtKeyUsageServerAuth, nil, []net.IP{net.ParseIP("10.0.0.5")})
	serverCfg := &tls.Config{Certificates: []tls.Certificate{serverCert}}
	raw, in := startServer(t, serverCfg, nil)
	defer raw.Close()

	ctx, err := NewContext(TrustConfig{})
	require.NoError(t, err)
	ctx.SetCertVerify(func(*x509.Certificate, any) error { return nil }, nil)

	eng := ctx.NewEngine("10.0.0.6")
	state := driveHandshake(t, eng, raw, in)
	require.Equal(t, types.HandshakeError, state)
	assert.ErrorIs(t, eng.Err(), ErrNameMismatch)
}

func TestLargeWriteDrains(t *testing.T) {
	ctx, serverCfg := trustedSetup(t, nil)

	payload := make([]byte, 256*1024)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	received := make(chan error, 1)
	raw, in := startServer(t, serverCfg, func(conn *tls.Conn) {
		buf := make([]byte, len(payload))
		_, rerr := io.ReadFull(conn, buf)
		received <- rerr
		_, _ = conn.Write([]byte("ok"))
	})
	defer raw.Close()

	eng := ctx.NewEngine("localhost")
	require.Equal(t, types.HandshakeComplete, driveHandshake(t, eng, raw, in))

	// a small drain buffer forces repeated write/drain cycles
	out := make([]byte, 16*1024)
	sendAll(t, eng, raw, payload, out)

	select {
	case rerr := <-received:
		require.NoError(t, rerr)
	case <-time.After(shuttleTimeout):
		t.Fatal("server did not receive the payload")
	}
	ack := recvAll(t, eng, raw, in, 2)
	assert.Equal(t, []byte("ok"), ack[:2])
}

func TestPeerCloseNotify(t *testing.T) {
	ctx, serverCfg := trustedSetup(t, nil)
	raw, in := startServer(t, serverCfg, func(conn *tls.Conn) {
		conn.Close()
	})
	defer raw.Close()

	eng := ctx.NewEngine("localhost")
	require.Equal(t, types.HandshakeComplete, driveHandshake(t, eng, raw, in))

	out := make([]byte, 32*1024)
	deadline := time.After(shuttleTimeout)
	var data []byte
	for {
		_, res := eng.Read(data, out)
		data = nil
		switch res {
		case types.EOF:
			return
		case types.OK, types.MoreAvailable, types.HasWrite:
			select {
			case d, ok := <-in:
				if !ok {
					t.Fatal("transport closed before close notify was seen")
				}
				data = d
			case <-deadline:
				t.Fatal("timed out waiting for close notify")
			}
		case types.Err:
			t.Fatalf("read failed: %s", eng.Strerror())
		}
	}
}

func TestCloseProducesCloseNotify(t *testing.T) {
	ctx, serverCfg := trustedSetup(t, nil)
	raw, in := startServer(t, serverCfg, echoHandler)
	defer raw.Close()

	eng := ctx.NewEngine("localhost")
	require.Equal(t, types.HandshakeComplete, driveHandshake(t, eng, raw, in))

	out := make([]byte, 4*1024)
	n := eng.Close(out)
	assert.Greater(t, n, 0, "close must queue a close notify record")
}

func TestResetBeforeHandshake(t *testing.T) {
	ctx, err := NewContext(TrustConfig{})
	require.NoError(t, err)

	eng := ctx.NewEngine("localhost")
	require.NoError(t, eng.Reset())
	assert.Equal(t, types.HandshakeBefore, eng.HandshakeState())
	assert.NoError(t, eng.Err())
}

func TestResetAfterFailureAllowsRetry(t *testing.T) {
	ctx, serverCfg := trustedSetup(t, nil)

	// first attempt is fed garbage and must fail
	eng := ctx.NewEngine("localhost")
	out := make([]byte, 32*1024)
	state, _ := eng.Handshake(nil, out)
	require.Equal(t, types.HandshakeContinue, state)
	state, _ = eng.Handshake([]byte("this is not a tls record......."), out)
	require.Equal(t, types.HandshakeError, state)
	assert.Error(t, eng.Err())

	require.NoError(t, eng.Reset())
	require.Equal(t, types.HandshakeBefore, eng.HandshakeState())
	assert.NoError(t, eng.Err())

	raw, in := startServer(t, serverCfg, echoHandler)
	defer raw.Close()
	require.Equal(t, types.HandshakeComplete, driveHandshake(t, eng, raw, in))
}

func TestReadBeforeHandshake(t *testing.T) {
	ctx, err := NewContext(TrustConfig{})
	require.NoError(t, err)
	eng := ctx.NewEngine("localhost")

	out := make([]byte, 1024)
	n, res := eng.Read(nil, out)
	assert.Zero(t, n)
	assert.Equal(t, types.Err, res)
	assert.ErrorIs(t, eng.Err(), ErrHandshakeNotComplete)
}

func TestSessionResumption(t *testing.T) {
	ctx, serverCfg := trustedSetup(t, nil)

	eng := ctx.NewEngine("localhost")

	raw, in := startServer(t, serverCfg, echoHandler)
	require.Equal(t, types.HandshakeComplete, driveHandshake(t, eng, raw, in))

	// a round trip makes the engine consume the session tickets the
	// server queued after its handshake
	out := make([]byte, 32*1024)
	sendAll(t, eng, raw, []byte("ping"), out)
	recvAll(t, eng, raw, in, 4)
	raw.Close()

	require.NoError(t, eng.Reset())
	require.Equal(t, types.HandshakeBefore, eng.HandshakeState())

	resumed := make(chan bool, 1)
	raw2, in2 := startServer(t, serverCfg, func(conn *tls.Conn) {
		resumed <- conn.ConnectionState().DidResume
		echoHandler(conn)
	})
	defer raw2.Close()

	require.Equal(t, types.HandshakeComplete, driveHandshake(t, eng, raw2, in2))
	select {
	case r := <-resumed:
		assert.True(t, r, "second handshake must resume the captured session")
	case <-time.After(shuttleTimeout):
		t.Fatal("server never reported its handshake")
	}
}

func TestContextVersion(t *testing.T) {
	ctx, err := NewContext(TrustConfig{})
	require.NoError(t, err)
	assert.Contains(t, ctx.Version(), "crypto/tls")
}

func TestDefaultFactory(t *testing.T) {
	factory := DefaultFactory()
	ctx, err := factory(TrustConfig{})
	require.NoError(t, err)
	require.NotNil(t, ctx)
}

func TestSetOwnCertInvalidLeavesConfigUnchanged(t *testing.T) {
	ctx, err := NewContext(TrustConfig{})
	require.NoError(t, err)

	key, err := keys.Generate()
	require.NoError(t, err)
	require.NoError(t, ctx.SetOwnKey(key))

	err = ctx.SetOwnCert([]byte("not a certificate"))
	require.ErrorIs(t, err, ErrInvalidCertificate)
	assert.Nil(t, ctx.ownPair)
	assert.Same(t, key, ctx.ownKey.(*keys.Key))
}

func TestSetOwnKeyNil(t *testing.T) {
	ctx, err := NewContext(TrustConfig{})
	require.NoError(t, err)
	assert.ErrorIs(t, ctx.SetOwnKey(nil), ErrNilKey)
}
