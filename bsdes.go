// Package bsdes implements bitsliced DES and Triple DES.
//
// A Cipher encrypts a batch of independent 64-bit blocks at once. Each of the 64 bit positions of the batch is held in
// one machine word (a bit-plane) with one lane per block, and the cipher's S-boxes run as XOR/AND networks compiled by
// package circuit, so every lane is processed by the same straight-line sequence of word operations with no
// table lookups indexed by secret data.
//
// Keys of 8, 16 or 24 bytes select single, two-key or three-key Triple DES in encrypt-decrypt-encrypt order. An 8-byte
// key makes all three keys equal, which degenerates to single DES; a 16-byte key reuses the first key as the third.
//
// A Cipher is also a cipher.Block: Encrypt and Decrypt process one block through a scalar, table-driven path, which
// block modes use for inputs shorter than a batch.
package bsdes

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/codahale/bsdes/internal/keysched"
)

const (
	// BlockSize is the DES block size in bytes.
	BlockSize = 8

	// BatchSize is the number of blocks processed together by a Cipher from NewCipher.
	BatchSize = 32
)

var (
	// ErrInvalidKeyLength is returned when a key is not 8, 16, or 24 bytes long.
	ErrInvalidKeyLength = errors.New("bsdes: invalid key length")

	// ErrInvalidBatchSize is returned when an input is not a whole number of batches.
	ErrInvalidBatchSize = errors.New("bsdes: input is not a multiple of the batch size")

	// ErrInvalidLanes is returned when a requested lane count is not 8, 16, 32, or 64.
	ErrInvalidLanes = errors.New("bsdes: invalid lane count")
)

// batcher is a bitsliced engine of some plane width.
type batcher interface {
	lanes() int
	crypt(dst, src []byte, decrypt bool)
	reset()
}

// Cipher is a keyed bitsliced Triple DES instance.
//
// A Cipher is safe for concurrent use by multiple goroutines once created, as long as no goroutine calls Reset
// concurrently.
type Cipher struct {
	sched [3]keysched.Scalar
	bs    batcher
}

// NewCipher returns a Cipher that processes BatchSize blocks per batch. The key must be 8, 16, or 24 bytes long.
func NewCipher(key []byte) (*Cipher, error) {
	return NewCipherLanes(key, BatchSize)
}

// NewCipherLanes returns a Cipher that processes the given number of blocks per batch, which must be 8, 16, 32, or
// 64. The key must be 8, 16, or 24 bytes long.
func NewCipherLanes(key []byte, lanes int) (*Cipher, error) {
	k1, k2, k3, err := splitKey(key)
	if err != nil {
		return nil, err
	}

	c := &Cipher{sched: [3]keysched.Scalar{
		keysched.Schedule(k1),
		keysched.Schedule(k2),
		keysched.Schedule(k3),
	}}

	switch lanes {
	case 8:
		c.bs = newEngine[uint8](&c.sched)
	case 16:
		c.bs = newEngine[uint16](&c.sched)
	case 32:
		c.bs = newEngine[uint32](&c.sched)
	case 64:
		c.bs = newEngine[uint64](&c.sched)
	default:
		c.Reset()
		return nil, fmt.Errorf("%w: %d", ErrInvalidLanes, lanes)
	}
	return c, nil
}

func splitKey(key []byte) (k1, k2, k3 uint64, err error) {
	switch len(key) {
	case 8:
		k1 = binary.BigEndian.Uint64(key)
		return k1, k1, k1, nil
	case 16:
		k1, k2 = binary.BigEndian.Uint64(key), binary.BigEndian.Uint64(key[8:])
		return k1, k2, k1, nil
	case 24:
		k1, k2 = binary.BigEndian.Uint64(key), binary.BigEndian.Uint64(key[8:])
		k3 = binary.BigEndian.Uint64(key[16:])
		return k1, k2, k3, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %d bytes", ErrInvalidKeyLength, len(key))
	}
}

// BlockSize returns the DES block size, 8 bytes.
func (c *Cipher) BlockSize() int {
	return BlockSize
}

// BatchSize returns the number of blocks processed together by EncryptBlocks and DecryptBlocks.
func (c *Cipher) BatchSize() int {
	return c.bs.lanes()
}

// EncryptBlocks encrypts src into dst, whose length must be at least len(src). The length of src must be a multiple
// of BatchSize blocks; otherwise EncryptBlocks returns ErrInvalidBatchSize without writing to dst. An empty src is a
// no-op. dst and src may overlap entirely or not at all.
func (c *Cipher) EncryptBlocks(dst, src []byte) error {
	return c.cryptBlocks(dst, src, false)
}

// DecryptBlocks decrypts src into dst under the same rules as EncryptBlocks.
func (c *Cipher) DecryptBlocks(dst, src []byte) error {
	return c.cryptBlocks(dst, src, true)
}

func (c *Cipher) cryptBlocks(dst, src []byte, decrypt bool) error {
	if len(src)%(c.bs.lanes()*BlockSize) != 0 {
		return fmt.Errorf("%w: %d bytes with %d-block batches", ErrInvalidBatchSize, len(src), c.bs.lanes())
	}
	if len(src) == 0 {
		return nil
	}
	if len(dst) < len(src) {
		panic("bsdes: output smaller than input")
	}

	c.bs.crypt(dst, src, decrypt)
	return nil
}

// Encrypt encrypts the first block of src into dst through the scalar path. dst and src may overlap entirely or not
// at all.
func (c *Cipher) Encrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("bsdes: input not full block")
	}
	if len(dst) < BlockSize {
		panic("bsdes: output not full block")
	}

	b := binary.BigEndian.Uint64(src)
	b = cryptBlock(&c.sched[0], b, false)
	b = cryptBlock(&c.sched[1], b, true)
	b = cryptBlock(&c.sched[2], b, false)
	binary.BigEndian.PutUint64(dst, b)
}

// Decrypt decrypts the first block of src into dst through the scalar path.
func (c *Cipher) Decrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("bsdes: input not full block")
	}
	if len(dst) < BlockSize {
		panic("bsdes: output not full block")
	}

	b := binary.BigEndian.Uint64(src)
	b = cryptBlock(&c.sched[2], b, true)
	b = cryptBlock(&c.sched[1], b, false)
	b = cryptBlock(&c.sched[0], b, true)
	binary.BigEndian.PutUint64(dst, b)
}

// Reset zeroes the key schedules. The Cipher must not be used afterwards.
func (c *Cipher) Reset() {
	clear(c.sched[:])
	if c.bs != nil {
		c.bs.reset()
	}
}

var _ cipher.Block = (*Cipher)(nil)
