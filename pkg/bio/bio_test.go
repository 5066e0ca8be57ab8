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

package bio

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyRead(t *testing.T) {
	b := New()
	out := make([]byte, 16)
	assert.Equal(t, 0, b.Read(out))
	assert.Equal(t, 0, b.Available())
}

func TestPutRead(t *testing.T) {
	b := New()
	b.Put([]byte("hello "))
	b.Put([]byte("world"))
	require.Equal(t, 11, b.Available())

	out := make([]byte, 32)
	n := b.Read(out)
	require.Equal(t, 11, n)
	assert.Equal(t, "hello world", string(out[:n]))
	assert.Equal(t, 0, b.Available())
}

func TestShortRead(t *testing.T) {
	b := New()
	b.Put([]byte("abcdefgh"))

	out := make([]byte, 3)
	require.Equal(t, 3, b.Read(out))
	assert.Equal(t, "abc", string(out))
	require.Equal(t, 5, b.Available())

	require.Equal(t, 3, b.Read(out))
	assert.Equal(t, "def", string(out))

	require.Equal(t, 2, b.Read(out))
	assert.Equal(t, "gh", string(out[:2]))
	assert.Equal(t, 0, b.Available())
}

func TestReadSpansChunks(t *testing.T) {
	b := New()
	b.Put([]byte("abc"))
	b.Put([]byte("defgh"))

	out := make([]byte, 8)
	require.Equal(t, 8, b.Read(out))
	assert.Equal(t, "abcdefgh", string(out))
}

func TestPutCopiesData(t *testing.T) {
	b := New()
	src := []byte("original")
	b.Put(src)
	copy(src, "CLOBBER!")

	out := make([]byte, 8)
	b.Read(out)
	assert.Equal(t, "original", string(out))
}

func TestClear(t *testing.T) {
	b := New()
	b.Put([]byte("leftover"))
	b.Clear()
	assert.Equal(t, 0, b.Available())
	assert.Equal(t, 0, b.Read(make([]byte, 4)))
}

// FIFO order must survive any split of puts and reads.
func TestArbitrarySplitPatterns(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	original := make([]byte, 4096)
	rng.Read(original)

	for trial := 0; trial < 50; trial++ {
		b := New()
		for off := 0; off < len(original); {
			n := 1 + rng.Intn(200)
			if off+n > len(original) {
				n = len(original) - off
			}
			b.Put(original[off : off+n])
			off += n
		}
		require.Equal(t, len(original), b.Available())

		var got []byte
		for b.Available() > 0 {
			out := make([]byte, 1+rng.Intn(300))
			n := b.Read(out)
			got = append(got, out[:n]...)
		}
		require.True(t, bytes.Equal(original, got), "trial %d: FIFO order not preserved", trial)
	}
}
