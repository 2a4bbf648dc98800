// Package testdata provides deterministic pseudorandom inputs for tests, fuzz seeds, and benchmarks.
package testdata

import (
	"crypto/sha3"
	"encoding/binary"
)

// DRBG is a deterministic random bit generator built on SHAKE128. Two DRBGs with the same domain produce the same
// sequence of outputs.
type DRBG struct {
	h *sha3.SHAKE
}

// New returns a DRBG seeded with the given domain string.
func New(domain string) *DRBG {
	h := sha3.NewSHAKE128()
	_, _ = h.Write([]byte(domain))
	return &DRBG{h: h}
}

// Data returns the next n bytes of output.
func (d *DRBG) Data(n int) []byte {
	b := make([]byte, n)
	_, _ = d.h.Read(b)
	return b
}

// Uint64 returns the next eight bytes of output as a big-endian integer.
func (d *DRBG) Uint64() uint64 {
	return binary.BigEndian.Uint64(d.Data(8))
}
