package blake3

import (
	"encoding/binary"

	"github.com/codahale/blake3/hazmat/compress"
)

// chunkState accumulates up to ChunkSize bytes of one leaf chunk, chaining
// compressions across its blocks. The buffered block is only compressed once
// a byte beyond it arrives, so the chunk-end compression is always still in
// hand when the hasher finalizes.
type chunkState struct {
	cv         [8]uint32
	counter    uint64
	flags      uint32
	block      [compress.BlockLen]byte
	blockLen   int
	compressed int // complete blocks compressed so far
}

func newChunkState(key [8]uint32, counter uint64, flags uint32) chunkState {
	return chunkState{cv: key, counter: counter, flags: flags}
}

func (c *chunkState) len() int {
	return c.compressed*compress.BlockLen + c.blockLen
}

func (c *chunkState) startFlag() uint32 {
	if c.compressed == 0 {
		return compress.FlagChunkStart
	}
	return 0
}

// update absorbs p into the chunk. The caller never passes more than the
// chunk has room for.
func (c *chunkState) update(p []byte) {
	for len(p) > 0 {
		if c.blockLen == compress.BlockLen {
			var block, out [16]uint32
			blockWords(c.block[:], &block)
			compress.Compress(&c.cv, &block, c.counter, compress.BlockLen, c.flags|c.startFlag(), &out)
			copy(c.cv[:], out[:8])
			c.compressed++
			c.blockLen = 0
			clear(c.block[:])
		}

		n := copy(c.block[c.blockLen:], p)
		c.blockLen += n
		p = p[n:]
	}
}

// output captures the chunk's final compression without performing it: the
// buffered block with CHUNK_END set, and CHUNK_START too if it is also the
// first. The chunk state itself is unchanged.
func (c *chunkState) output() node {
	n := node{
		cv:       c.cv,
		counter:  c.counter,
		blockLen: uint32(c.blockLen),
		flags:    c.flags | c.startFlag() | compress.FlagChunkEnd,
	}
	blockWords(c.block[:], &n.block)
	return n
}

// node captures the inputs of a single deferred compression. Depending on
// its position in the tree, its output is consumed as a chaining value or,
// for the root, expanded into the output stream.
type node struct {
	cv       [8]uint32
	block    [16]uint32
	counter  uint64
	blockLen uint32
	flags    uint32
}

func (n node) chainingValue() (cv [8]uint32) {
	var out [16]uint32
	compress.Compress(&n.cv, &n.block, n.counter, n.blockLen, n.flags, &out)
	copy(cv[:], out[:8])
	return cv
}

// fillOutput serializes the compression of n with the given output-block
// index in the counter slot. The index is an output position, not the root
// node's chunk counter; the two share a state word but are distinct values.
func (n node) fillOutput(index uint64, out *[compress.BlockLen]byte) {
	var words [16]uint32
	compress.Compress(&n.cv, &n.block, index, n.blockLen, n.flags, &words)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
}

// parentNode combines two child CVs under the base key. Parent compressions
// always run with a zero counter and a full block.
func parentNode(left, right, key [8]uint32, flags uint32) node {
	n := node{
		cv:       key,
		blockLen: compress.BlockLen,
		flags:    flags | compress.FlagParent,
	}
	copy(n.block[:8], left[:])
	copy(n.block[8:], right[:])
	return n
}

// leafCVs4 hashes four whole chunks in one pass through the four-lane
// compression, producing the CVs of chunks counter through counter+3.
// data must hold exactly four chunks.
func leafCVs4(data []byte, counter uint64, key [8]uint32, flags uint32, cvs *[4][8]uint32) {
	counters := [4]uint64{counter, counter + 1, counter + 2, counter + 3}
	for i := range cvs {
		cvs[i] = key
	}

	var m [16][4]uint32
	for blk := range ChunkSize / compress.BlockLen {
		f := flags
		if blk == 0 {
			f |= compress.FlagChunkStart
		}
		if blk == ChunkSize/compress.BlockLen-1 {
			f |= compress.FlagChunkEnd
		}

		for lane := range 4 {
			off := lane*ChunkSize + blk*compress.BlockLen
			for w := range 16 {
				m[w][lane] = binary.LittleEndian.Uint32(data[off+4*w:])
			}
		}

		compress.Compress4(cvs, &m, &counters, compress.BlockLen, f, cvs)
	}
}

func blockWords(b []byte, w *[16]uint32) {
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
}
