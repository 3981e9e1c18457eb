package blake3

import (
	"errors"
	"io"

	"github.com/codahale/blake3/hazmat/compress"
)

// XOF is the extensible output stream of a finalized hash. It emits bytes by
// re-invoking the compression function on the root node with an advancing
// output-block index in the counter slot, 64 bytes per compression. The
// stream is deterministic and seekable from the start.
type XOF struct {
	n    node
	buf  [compress.BlockLen]byte
	off  uint64
	have bool // buf holds the block containing off
}

// Read fills p with output bytes, continuing from where the last read ended.
// It never returns an error.
func (x *XOF) Read(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		if !x.have {
			x.n.fillOutput(x.off/compress.BlockLen, &x.buf)
			x.have = true
		}

		r := copy(p, x.buf[x.off%compress.BlockLen:])
		x.off += uint64(r)
		p = p[r:]
		if x.off%compress.BlockLen == 0 {
			x.have = false
		}
	}
	return n, nil
}

// Seek repositions the output stream. The stream is unbounded, so
// io.SeekEnd is not supported.
func (x *XOF) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(x.off) + offset
	default:
		return 0, errors.New("blake3: unsupported seek whence")
	}
	if abs < 0 {
		return 0, errors.New("blake3: negative seek offset")
	}

	x.off = uint64(abs)
	x.have = false
	return abs, nil
}

var _ io.ReadSeeker = (*XOF)(nil)
