package bsdes

import (
	"github.com/codahale/bsdes/internal/keysched"
	"github.com/codahale/bsdes/internal/tables"
)

// cryptBlock runs one block through DES with a scalar schedule, using table lookups instead of the compiled networks.
func cryptBlock(sk *keysched.Scalar, b uint64, decrypt bool) uint64 {
	b = tables.Permute64(b, 64, tables.IP[:])
	left, right := uint32(b>>32), uint32(b)

	for i := range keysched.Rounds {
		subkey := sk[i]
		if decrypt {
			subkey = sk[keysched.Rounds-1-i]
		}
		left, right = right, left^feistel(right, subkey)
	}

	// switch left & right and perform final permutation
	return tables.Permute64(uint64(right)<<32|uint64(left), 64, tables.FP[:])
}

func feistel(right uint32, subkey uint64) uint32 {
	x := tables.Permute64(uint64(right), 32, tables.E[:]) ^ subkey

	var s uint64
	for b := range tables.SBoxes {
		v := uint8(x>>(42-6*b)) & 0x3f
		row := (v>>5)<<1 | v&1
		col := (v >> 1) & 0xf
		s |= uint64(tables.SBoxes[b][16*row+col]) << (28 - 4*b)
	}

	return uint32(tables.Permute64(s, 32, tables.P[:]))
}
