// Package blake3 implements the BLAKE3 cryptographic hash function.
//
// BLAKE3 is a Merkle-tree hash built on a 7-round ARX compression function.
// It has three modes: plain hashing, keyed hashing (a MAC), and key
// derivation. Every mode is an eXtendable-Output Function (XOF): output of
// any length can be squeezed from a single finalized state. The default
// digest is 32 bytes.
//
// Input is split into 1 KiB chunks, the leaves of an implicit binary tree
// whose shape is fully determined by the chunk count. A logarithmic stack of
// chaining values maintains the tree's right spine incrementally, so hashing
// streams of any length needs only constant memory.
package blake3

import (
	"encoding/binary"
	"errors"
	"hash"
	"io"

	"github.com/codahale/blake3/hazmat/compress"
)

const (
	// Size is the default digest size in bytes.
	Size = 32

	// KeySize is the size of a keyed-mode key in bytes.
	KeySize = 32

	// ChunkSize is the BLAKE3 chunk size in bytes.
	ChunkSize = 1024

	// maxDepth bounds the chaining-value stack. 54 levels cover 2⁵⁴ chunks,
	// beyond any addressable input.
	maxDepth = 54
)

// ErrKeySize is returned by NewKeyed when the key is not exactly KeySize
// bytes.
var ErrKeySize = errors.New("blake3: key must be 32 bytes")

// Hasher is an incremental BLAKE3 instance that implements hash.Hash and
// io.Reader. Writes absorb message bytes and reads squeeze output; once Read
// is called, no further writes are permitted.
type Hasher struct {
	key       [8]uint32
	flags     uint32
	chunk     chunkState
	stack     [maxDepth][8]uint32
	stackLen  int
	xof       XOF
	squeezing bool
}

// New returns a Hasher for plain hashing.
func New() *Hasher {
	return newHasher(compress.IV, 0)
}

// NewKeyed returns a Hasher for keyed hashing under the given 32-byte key.
func NewKeyed(key []byte) (*Hasher, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	return newHasher(keyWords(key), compress.FlagKeyedHash), nil
}

// NewDeriveKey returns a Hasher for key derivation. The context string
// should be hardcoded, globally unique, and application-specific; the
// material written to the Hasher is the input key material.
func NewDeriveKey(context string) *Hasher {
	c := newHasher(compress.IV, compress.FlagDeriveKeyContext)
	_, _ = c.Write([]byte(context))
	var ck [KeySize]byte
	_, _ = c.Read(ck[:])
	return newHasher(keyWords(ck[:]), compress.FlagDeriveKeyMaterial)
}

func newHasher(key [8]uint32, flags uint32) *Hasher {
	return &Hasher{key: key, flags: flags, chunk: newChunkState(key, 0, flags)}
}

func keyWords(key []byte) (w [8]uint32) {
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(key[4*i:])
	}
	return w
}

// Write absorbs message bytes. It must not be called after Read.
func (h *Hasher) Write(p []byte) (int, error) {
	if h.squeezing {
		panic("blake3: write after read")
	}

	n := len(p)
	for len(p) > 0 {
		// A chunk closes only once a byte beyond it arrives, so the final
		// chunk is always still open at finalization.
		if h.chunk.len() == ChunkSize {
			next := h.chunk.counter + 1
			h.pushChunk(h.chunk.output().chainingValue(), next)
			h.chunk = newChunkState(h.key, next, h.flags)
		}

		// Batch whole groups of four chunks directly from p, keeping at
		// least one byte back.
		if h.chunk.len() == 0 && compress.Lanes >= 4 && len(p) > 4*ChunkSize {
			groups := ((len(p) - 1) / ChunkSize) / 4
			base := h.chunk.counter
			for range groups {
				var cvs [4][8]uint32
				leafCVs4(p[:4*ChunkSize], base, h.key, h.flags, &cvs)
				for i := range cvs {
					h.pushChunk(cvs[i], base+uint64(i)+1)
				}
				base += 4
				p = p[4*ChunkSize:]
			}
			h.chunk = newChunkState(h.key, base, h.flags)
			continue
		}

		take := min(ChunkSize-h.chunk.len(), len(p))
		h.chunk.update(p[:take])
		p = p[take:]
	}
	return n, nil
}

// pushChunk pushes a finished chunk's CV onto the stack and performs the
// merges the new chunk count mandates: one per trailing zero bit of total.
func (h *Hasher) pushChunk(cv [8]uint32, total uint64) {
	for ; total&1 == 0; total >>= 1 {
		h.stackLen--
		n := parentNode(h.stack[h.stackLen], cv, h.key, h.flags)
		cv = n.chainingValue()
	}
	h.stack[h.stackLen] = cv
	h.stackLen++
}

// finalize folds the open chunk and the stacked CVs into the root node.
// Merges run right to left; only the last compression, deferred inside the
// returned XOF, carries the ROOT flag. The hasher state is not modified.
func (h *Hasher) finalize() XOF {
	n := h.chunk.output()
	for i := h.stackLen - 1; i >= 0; i-- {
		n = parentNode(h.stack[i], n.chainingValue(), h.key, h.flags)
	}
	n.flags |= compress.FlagRoot
	return XOF{n: n}
}

// Read squeezes output from the hash. On the first call, it finalizes
// absorption; subsequent calls continue the output stream. It never returns
// an error.
func (h *Hasher) Read(p []byte) (int, error) {
	if !h.squeezing {
		h.xof = h.finalize()
		h.squeezing = true
	}
	return h.xof.Read(p)
}

// XOF finalizes the current state and returns a seekable output reader. The
// Hasher itself is unchanged and may continue absorbing.
func (h *Hasher) XOF() *XOF {
	x := h.finalize()
	return &x
}

// Sum appends the current 32-byte digest to b without changing the
// underlying state.
func (h *Hasher) Sum(b []byte) []byte {
	var d [Size]byte
	x := h.finalize()
	_, _ = x.Read(d[:])
	return append(b, d[:]...)
}

// Clone returns an independent copy of the Hasher.
func (h *Hasher) Clone() *Hasher {
	c := *h
	return &c
}

// Reset resets the Hasher to its initial state, retaining the mode.
func (h *Hasher) Reset() {
	h.chunk = newChunkState(h.key, 0, h.flags)
	h.stackLen = 0
	h.xof = XOF{}
	h.squeezing = false
}

// Size returns the default digest size in bytes.
func (h *Hasher) Size() int { return Size }

// BlockSize returns the compression function's block size.
func (h *Hasher) BlockSize() int { return compress.BlockLen }

var (
	_ hash.Hash = (*Hasher)(nil)
	_ io.Reader = (*Hasher)(nil)
)

// Sum256 computes the 32-byte BLAKE3 digest of data.
func Sum256(data []byte) (d [Size]byte) {
	h := New()
	_, _ = h.Write(data)
	_, _ = h.Read(d[:])
	return d
}

// Sum fills dst with BLAKE3 output of data, using the output length the
// caller chose by sizing dst.
func Sum(dst, data []byte) {
	h := New()
	_, _ = h.Write(data)
	_, _ = h.Read(dst)
}

// KeyedSum fills dst with keyed BLAKE3 output of data under the given
// 32-byte key.
func KeyedSum(key, dst, data []byte) error {
	h, err := NewKeyed(key)
	if err != nil {
		return err
	}
	_, _ = h.Write(data)
	_, _ = h.Read(dst)
	return nil
}

// DeriveKey fills dst with key material derived from the given input key
// material, domain-separated by the context string.
func DeriveKey(context string, material, dst []byte) {
	h := NewDeriveKey(context)
	_, _ = h.Write(material)
	_, _ = h.Read(dst)
}
