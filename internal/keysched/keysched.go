// Package keysched derives DES round subkeys and expands them into bit-planes.
package keysched

import (
	"github.com/codahale/bsdes/circuit"
	"github.com/codahale/bsdes/internal/bitslice"
	"github.com/codahale/bsdes/internal/tables"
)

// Rounds is the number of DES rounds, and SubkeyBits the width of a round subkey.
const (
	Rounds     = 16
	SubkeyBits = 48
)

// Scalar is the schedule of one key: sixteen 48-bit subkeys, the first PC2 output bit in bit 47.
type Scalar [Rounds]uint64

// Planes is the schedule of one key as bit-planes: plane j of round r is all ones if bit 47-j of subkey r is set.
type Planes[W circuit.Word] [Rounds][SubkeyBits]W

// Schedule computes the subkeys of a 64-bit key. PC1 splits the key into 28-bit halves C and D; before each round both
// rotate left by the round's shift and PC2 selects the subkey from C||D.
func Schedule(key uint64) Scalar {
	cd := tables.Permute64(key, 64, tables.PC1[:])
	c, d := uint32(cd>>28), uint32(cd&0x0fffffff)

	var sk Scalar
	for r, s := range tables.Shifts {
		c, d = rotl28(c, int(s)), rotl28(d, int(s))
		sk[r] = tables.Permute64(uint64(c)<<28|uint64(d), 56, tables.PC2[:])
	}
	return sk
}

func rotl28(v uint32, s int) uint32 {
	return (v<<s | v>>(28-s)) & 0x0fffffff
}

// Expand broadcasts every subkey bit into a full plane.
func Expand[W circuit.Word](sk *Scalar, planes *Planes[W]) {
	for r, sub := range sk {
		for j := range SubkeyBits {
			planes[r][j] = bitslice.Broadcast[W](sub >> (SubkeyBits - 1 - j))
		}
	}
}
