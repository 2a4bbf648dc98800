// Package mem holds byte slice helpers shared by the block modes.
package mem

import (
	"crypto/subtle"
	"slices"
)

// XOR XORs a and b into dst. Uses subtle.XORBytes for slices larger than
// 16 bytes (which benefits from SIMD) and a scalar loop for small slices.
func XOR(dst, a, b []byte) {
	if len(dst) > 16 {
		subtle.XORBytes(dst, a, b)
	} else {
		for i := range dst {
			dst[i] = a[i] ^ b[i]
		}
	}
}

// Split divides b into a head whose length is the largest multiple of size that fits, and the remaining tail.
func Split(b []byte, size int) (head, tail []byte) {
	n := len(b) - len(b)%size
	return b[:n], b[n:]
}

// SliceForAppend returns in extended by n bytes, and a second slice aliasing only the extra bytes. If in has enough
// capacity, no allocation is performed.
func SliceForAppend(in []byte, n int) (head, tail []byte) {
	head = slices.Grow(in, n)
	head = head[:len(in)+n]
	tail = head[len(in):]
	return head, tail
}
