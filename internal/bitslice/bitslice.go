// Package bitslice converts between batches of 64-bit blocks and bit-planes.
//
// A batch holds one block per bit of the plane word W, so a uint32 plane carries 32 blocks. Plane p holds bit p of
// every block, counting from the most significant bit of the big-endian block: planes 0 through 31 are the left half
// and planes 32 through 63 the right half. In Go the plane word is the vector register, so broadcasting a plane word
// to a vector and extracting its first lane are both the identity.
package bitslice

import (
	"encoding/binary"
	"errors"
	"math/bits"

	"github.com/codahale/bsdes/circuit"
)

// Planes is the number of bit-planes in a batch of 64-bit blocks.
const Planes = 64

// ErrBatchSize is returned when a buffer does not hold exactly one batch of blocks.
var ErrBatchSize = errors.New("bsdes/bitslice: buffer size does not match batch size")

// Lanes returns the number of blocks in a batch of W planes.
func Lanes[W circuit.Word]() int {
	return bits.OnesCount64(uint64(^W(0)))
}

// Transpose transposes the n x n bit matrix x in place, where n is the number of bits in W and row r is x[r] with
// column 0 in its most significant bit. It runs log2(n) butterfly stages with strides n/2 down to 1, each exchanging
// the off-diagonal sub-blocks of a row pair with a mask-shift-XOR. Transpose is its own inverse.
func Transpose[W circuit.Word](x []W) {
	n := Lanes[W]()
	if len(x) != n {
		panic("bsdes/bitslice: matrix size does not match word size")
	}

	j := n / 2
	m := W(1)<<j - 1
	for j != 0 {
		for k := 0; k < n; k = (k + j + 1) &^ j {
			t := (x[k] ^ (x[k+j] >> j)) & m
			x[k] ^= t
			x[k+j] ^= t << j
		}
		j >>= 1
		m ^= m << j
	}
}

// Load reads one batch of big-endian blocks from src into planes. Each block is split into 64/n chunks of n bits; the
// chunk matrices are transposed independently and chunk c row r becomes plane c*n+r. After Load, lane b of every plane
// (bit n-1-b of the word) belongs to block b.
func Load[W circuit.Word](planes *[Planes]W, src []byte) error {
	n := Lanes[W]()
	if len(src) != n*8 {
		return ErrBatchSize
	}

	var buf [Planes]W
	rows := buf[:n]
	for c := 0; c < Planes/n; c++ {
		shift := Planes - n*(c+1)
		for i := range n {
			rows[i] = W(binary.BigEndian.Uint64(src[i*8:]) >> shift)
		}
		Transpose(rows)
		copy(planes[c*n:(c+1)*n], rows)
	}
	return nil
}

// Store writes the batch in planes to dst as big-endian blocks. It is the inverse of Load.
func Store[W circuit.Word](dst []byte, planes *[Planes]W) error {
	n := Lanes[W]()
	if len(dst) != n*8 {
		return ErrBatchSize
	}

	var blocks [Planes]uint64
	var buf [Planes]W
	rows := buf[:n]
	for c := 0; c < Planes/n; c++ {
		shift := Planes - n*(c+1)
		copy(rows, planes[c*n:(c+1)*n])
		Transpose(rows)
		for i := range n {
			blocks[i] |= uint64(rows[i]) << shift
		}
	}
	for i, b := range blocks[:n] {
		binary.BigEndian.PutUint64(dst[i*8:], b)
	}
	return nil
}

// Broadcast returns the all-ones plane if bit is set and the all-zeros plane otherwise.
func Broadcast[W circuit.Word](bit uint64) W {
	return -W(bit & 1)
}
