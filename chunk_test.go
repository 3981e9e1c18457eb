package blake3

import (
	"bytes"
	"fmt"
	"math/bits"
	"testing"

	"github.com/codahale/blake3/hazmat/compress"
	"github.com/codahale/blake3/internal/testdata"
)

func TestLeafCVs4MatchesScalar(t *testing.T) {
	drbg := testdata.New("blake3 leaf batch")
	data := drbg.Data(4 * ChunkSize)

	var key [8]uint32
	copy(key[:], compress.IV[:])

	for _, tc := range []struct {
		counter uint64
		flags   uint32
	}{
		{0, 0},
		{3, 0},
		{8, compress.FlagKeyedHash},
		{1 << 33, compress.FlagDeriveKeyMaterial},
	} {
		t.Run(fmt.Sprintf("counter=%d", tc.counter), func(t *testing.T) {
			var batched [4][8]uint32
			leafCVs4(data, tc.counter, key, tc.flags, &batched)

			for lane := range 4 {
				cs := newChunkState(key, tc.counter+uint64(lane), tc.flags)
				cs.update(data[lane*ChunkSize : (lane+1)*ChunkSize])
				if want := cs.output().chainingValue(); batched[lane] != want {
					t.Errorf("lane %d: batched CV %08x, want %08x", lane, batched[lane], want)
				}
			}
		})
	}
}

// TestLaneEquivalence forces both the batched and the scalar chunk paths and
// checks that they produce identical digests regardless of write pattern.
func TestLaneEquivalence(t *testing.T) {
	drbg := testdata.New("blake3 lanes")
	msg := drbg.Data(100*ChunkSize + 17)

	defer func(lanes int) { compress.Lanes = lanes }(compress.Lanes)

	compress.Lanes = 1
	h := New()
	_, _ = h.Write(msg)
	scalar := h.Sum(nil)

	compress.Lanes = 4
	h = New()
	_, _ = h.Write(msg)
	if batched := h.Sum(nil); !bytes.Equal(batched, scalar) {
		t.Errorf("batched digest %x, scalar digest %x", batched, scalar)
	}

	// Byte-at-a-time writes never hit the batched path.
	h = New()
	for i := range msg {
		_, _ = h.Write(msg[i : i+1])
	}
	if got := h.Sum(nil); !bytes.Equal(got, scalar) {
		t.Errorf("byte-wise digest %x, scalar digest %x", got, scalar)
	}
}

func TestStackInvariant(t *testing.T) {
	// After n complete chunks with more input pending, the stack holds
	// popcount(n) CVs, the right spine of a Merkle tree of n leaves.
	for _, n := range []int{1, 2, 3, 4, 5, 8, 31, 32, 33, 100, 127, 128} {
		h := New()
		_, _ = h.Write(make([]byte, n*ChunkSize+1))
		if want := bits.OnesCount(uint(n)); h.stackLen != want {
			t.Errorf("after %d chunks: stack holds %d CVs, want %d", n, h.stackLen, want)
		}
	}
}
