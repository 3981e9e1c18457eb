package compress

import "math/bits"

// vec holds one state word across four independent compressions, the layout
// a 128-bit SIMD register maps onto.
type vec [4]uint32

func splat(x uint32) vec { return vec{x, x, x, x} }

func (v vec) add(w vec) vec {
	return vec{v[0] + w[0], v[1] + w[1], v[2] + w[2], v[3] + w[3]}
}

func (v vec) xor(w vec) vec {
	return vec{v[0] ^ w[0], v[1] ^ w[1], v[2] ^ w[2], v[3] ^ w[3]}
}

func (v vec) rotr(n int) vec {
	return vec{
		bits.RotateLeft32(v[0], -n),
		bits.RotateLeft32(v[1], -n),
		bits.RotateLeft32(v[2], -n),
		bits.RotateLeft32(v[3], -n),
	}
}

// Compress4 applies the compression function to four independent lanes in
// vertical form. blocks holds the message transposed: blocks[w][l] is word w
// of lane l's block. All lanes share blockLen and flags; counters are per
// lane. Only the chaining-value half of each output is produced, since
// batched compressions hash interior chunks, which never feed the XOF.
// out may alias cvs.
func Compress4(cvs *[4][8]uint32, blocks *[16][4]uint32, counters *[4]uint64, blockLen, flags uint32, out *[4][8]uint32) {
	var s [16]vec
	for i := range 8 {
		s[i] = vec{cvs[0][i], cvs[1][i], cvs[2][i], cvs[3][i]}
	}
	for i := range 4 {
		s[8+i] = splat(IV[i])
	}
	s[12] = vec{uint32(counters[0]), uint32(counters[1]), uint32(counters[2]), uint32(counters[3])}
	s[13] = vec{
		uint32(counters[0] >> 32), uint32(counters[1] >> 32),
		uint32(counters[2] >> 32), uint32(counters[3] >> 32),
	}
	s[14] = splat(blockLen)
	s[15] = splat(flags)

	for r := range 7 {
		m := &schedule[r]
		g4(&s, 0, 4, 8, 12, blocks[m[0]], blocks[m[1]])
		g4(&s, 1, 5, 9, 13, blocks[m[2]], blocks[m[3]])
		g4(&s, 2, 6, 10, 14, blocks[m[4]], blocks[m[5]])
		g4(&s, 3, 7, 11, 15, blocks[m[6]], blocks[m[7]])
		g4(&s, 0, 5, 10, 15, blocks[m[8]], blocks[m[9]])
		g4(&s, 1, 6, 11, 12, blocks[m[10]], blocks[m[11]])
		g4(&s, 2, 7, 8, 13, blocks[m[12]], blocks[m[13]])
		g4(&s, 3, 4, 9, 14, blocks[m[14]], blocks[m[15]])
	}

	for i := range 8 {
		x := s[i].xor(s[i+8])
		out[0][i], out[1][i], out[2][i], out[3][i] = x[0], x[1], x[2], x[3]
	}
}

func g4(s *[16]vec, a, b, c, d int, mx, my vec) {
	s[a] = s[a].add(s[b]).add(mx)
	s[d] = s[d].xor(s[a]).rotr(16)
	s[c] = s[c].add(s[d])
	s[b] = s[b].xor(s[c]).rotr(12)
	s[a] = s[a].add(s[b]).add(my)
	s[d] = s[d].xor(s[a]).rotr(8)
	s[c] = s[c].add(s[d])
	s[b] = s[b].xor(s[c]).rotr(7)
}
