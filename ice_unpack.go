// ice_unpack.go - Pack-Ice decrunching for packed image assets.
//
// Pack-Ice (Axe of Delight/Superior) stores its stream back to front: the
// decoder starts at the last byte and fills the output from the end.
//
//   0   "ICE!"
//   4   crunched length, header included (big-endian)
//   8   decrunched length (big-endian)
//   12  literals and bit stream

package main

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	iceMagic      = 0x49434521 // "ICE!"
	iceHeaderSize = 12
)

var errICEUnderflow = errors.New("ice stream underflow")

// Variable-length code tables.
var (
	iceLiteralBits   = [...]int{1, 2, 2, 3, 8, 15}
	iceLiteralEscape = [...]int{1, 3, 3, 7, 0xff, 0x7fff}
	iceLiteralBase   = [...]int{1, 2, 5, 8, 15, 270, 270}

	iceMatchBits = [...]int{0, 0, 1, 2, 10}
	iceMatchBase = [...]int{2, 3, 4, 6, 10}

	iceOffsetBits = [...]int{8, 5, 12}
	iceOffsetBase = [...]int{31, -1, 287}
)

func isICE(data []byte) bool {
	return len(data) >= iceHeaderSize && binary.BigEndian.Uint32(data) == iceMagic
}

func iceLengths(data []byte) (crunched, decrunched int) {
	return int(binary.BigEndian.Uint32(data[4:])), int(binary.BigEndian.Uint32(data[8:]))
}

// iceReader walks the packed stream backwards. in and out are the read and
// write cursors; bits holds the current byte with a marker bit below the
// unread bits.
type iceReader struct {
	src  []byte
	dst  []byte
	in   int
	out  int
	bits int
}

func (r *iceReader) bit() int {
	b := r.bits >> 7 & 1
	r.bits = r.bits << 1 & 0xff
	if r.bits != 0 {
		return b
	}
	r.in--
	if r.in < iceHeaderSize {
		r.bits = 1
		return b
	}
	next := int(r.src[r.in])
	r.bits = (next<<1)&0xff | 1
	return next >> 7 & 1
}

func (r *iceReader) read(n int) int {
	v := 0
	for range n {
		v = v<<1 | r.bit()
	}
	return v
}

// prefix counts leading one bits, stopping at limit.
func (r *iceReader) prefix(limit int) int {
	i := 0
	for i < limit && r.bit() == 1 {
		i++
	}
	return i
}

func (r *iceReader) literalLength() int {
	i := 0
	n := 0
	for ; i < len(iceLiteralBits); i++ {
		n = r.read(iceLiteralBits[i])
		if n != iceLiteralEscape[i] {
			break
		}
	}
	return n + iceLiteralBase[i]
}

func (r *iceReader) matchLength() int {
	i := r.prefix(4)
	return r.read(iceMatchBits[i]) + iceMatchBase[i]
}

func (r *iceReader) matchOffset(length int) int {
	if length == 2 {
		if r.bit() == 1 {
			return r.read(9) + 0x3f
		}
		return r.read(6) - 1
	}
	i := r.prefix(2)
	offset := r.read(iceOffsetBits[i]) + iceOffsetBase[i]
	if offset < 0 {
		offset -= length - 2
	}
	return offset
}

func (r *iceReader) run() error {
	for {
		if r.bit() == 1 {
			n := r.literalLength()
			r.in -= n
			r.out -= n
			if r.out < 0 || r.in < iceHeaderSize {
				return errors.Wrap(errICEUnderflow, "literal run")
			}
			copy(r.dst[r.out:], r.src[r.in:r.in+n])
		}
		if r.out <= 0 {
			return nil
		}

		n := r.matchLength()
		from := r.out + r.matchOffset(n)
		r.out -= n
		if r.out < 0 {
			return errors.Wrap(errICEUnderflow, "match")
		}
		// Copy high to low; source and destination may overlap.
		for i := n - 1; i >= 0; i-- {
			s := from + i
			if s >= 0 && s < len(r.dst) {
				r.dst[r.out+i] = r.dst[s]
			}
		}
	}
}

// UnpackICE decrunches a complete Pack-Ice file.
func UnpackICE(data []byte) ([]byte, error) {
	if !isICE(data) {
		return nil, errors.New("not Pack-Ice data")
	}
	crunched, decrunched := iceLengths(data)
	if crunched <= iceHeaderSize || decrunched <= 0 {
		return nil, errors.Errorf("invalid Pack-Ice lengths: crunched %d, decrunched %d", crunched, decrunched)
	}
	if len(data) < crunched {
		return nil, errors.Errorf("Pack-Ice data truncated: have %d bytes, header says %d", len(data), crunched)
	}

	r := &iceReader{
		src: data,
		dst: make([]byte, decrunched),
		in:  crunched - 1,
		out: decrunched,
	}
	r.bits = int(data[r.in])
	if err := r.run(); err != nil {
		return nil, err
	}
	return r.dst, nil
}
