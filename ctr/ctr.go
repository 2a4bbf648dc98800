// Package ctr implements counter mode over a bitsliced DES cipher.
//
// The counter block is the IV, incremented as one big-endian 64-bit integer per block as in crypto/cipher's CTR mode.
// Keystream is produced a few batches of counters at a time and buffered across calls.
package ctr

import (
	"crypto/cipher"
	"encoding/binary"

	"github.com/codahale/bsdes"
	"github.com/codahale/bsdes/internal/mem"
)

// refillBatches is the number of batches of keystream generated per refill.
const refillBatches = 4

// New returns a cipher.Stream which encrypts or decrypts in CTR mode with the given cipher and IV. The IV must be one
// block long.
func New(c *bsdes.Cipher, iv []byte) cipher.Stream {
	if len(iv) != bsdes.BlockSize {
		panic("bsdes/ctr: IV length must equal block size")
	}

	n := refillBatches * c.BatchSize() * bsdes.BlockSize
	out := make([]byte, 2*n)
	return &stream{
		c:         c,
		ctr:       binary.BigEndian.Uint64(iv),
		counters:  out[:n:n],
		keystream: out[n:],
		pos:       n,
	}
}

type stream struct {
	c         *bsdes.Cipher
	ctr       uint64
	counters  []byte
	keystream []byte
	pos       int
}

func (s *stream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("bsdes/ctr: output smaller than input")
	}

	for len(src) > 0 {
		if s.pos == len(s.keystream) {
			s.refill()
		}

		n := min(len(src), len(s.keystream)-s.pos)
		mem.XOR(dst[:n], src[:n], s.keystream[s.pos:s.pos+n])
		s.pos += n
		dst, src = dst[n:], src[n:]
	}
}

func (s *stream) refill() {
	for i := 0; i < len(s.counters); i += bsdes.BlockSize {
		binary.BigEndian.PutUint64(s.counters[i:], s.ctr)
		s.ctr++
	}
	if err := s.c.EncryptBlocks(s.keystream, s.counters); err != nil {
		panic(err)
	}
	s.pos = 0
}
