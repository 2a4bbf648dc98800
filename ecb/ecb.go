// Package ecb implements electronic codebook mode over a bitsliced DES cipher.
//
// Whole batches go through the bitsliced engine, spread across goroutines for large inputs, and any remaining blocks
// go through the cipher's scalar path. ECB leaks equal plaintext blocks; it exists for compatibility and as the
// building block of the other modes.
package ecb

import (
	"crypto/cipher"
	"runtime"

	"github.com/codahale/bsdes"
	"github.com/codahale/bsdes/internal/mem"
	"github.com/codahale/bsdes/padding"
	"golang.org/x/sync/errgroup"
)

// batchesPerWorker is the number of batches a single goroutine processes.
const batchesPerWorker = 64

// NewEncrypter returns a cipher.BlockMode which encrypts in ECB mode with the given cipher.
func NewEncrypter(c *bsdes.Cipher) cipher.BlockMode {
	return &mode{c: c}
}

// NewDecrypter returns a cipher.BlockMode which decrypts in ECB mode with the given cipher.
func NewDecrypter(c *bsdes.Cipher) cipher.BlockMode {
	return &mode{c: c, decrypt: true}
}

// Encrypt pads plaintext with the given scheme and returns it encrypted in ECB mode.
func Encrypt(c *bsdes.Cipher, p padding.Scheme, plaintext []byte) ([]byte, error) {
	out, err := p.Pad(nil, plaintext, bsdes.BlockSize)
	if err != nil {
		return nil, err
	}
	NewEncrypter(c).CryptBlocks(out, out)
	return out, nil
}

// Decrypt decrypts ciphertext in ECB mode and removes the given padding scheme.
func Decrypt(c *bsdes.Cipher, p padding.Scheme, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%bsdes.BlockSize != 0 {
		return nil, padding.ErrUnaligned
	}
	out := make([]byte, len(ciphertext))
	NewDecrypter(c).CryptBlocks(out, ciphertext)
	return p.Unpad(out, bsdes.BlockSize)
}

type mode struct {
	c       *bsdes.Cipher
	decrypt bool
}

func (m *mode) BlockSize() int {
	return bsdes.BlockSize
}

func (m *mode) CryptBlocks(dst, src []byte) {
	if len(src)%bsdes.BlockSize != 0 {
		panic("bsdes/ecb: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("bsdes/ecb: output smaller than input")
	}

	head, tail := mem.Split(src, m.c.BatchSize()*bsdes.BlockSize)
	if err := Batches(m.c, dst[:len(head)], head, m.decrypt); err != nil {
		panic(err)
	}

	dst = dst[len(head):]
	for i := 0; i < len(tail); i += bsdes.BlockSize {
		if m.decrypt {
			m.c.Decrypt(dst[i:], tail[i:])
		} else {
			m.c.Encrypt(dst[i:], tail[i:])
		}
	}
}

// Batches runs src, a whole number of batches, through the cipher into dst. Inputs larger than a worker's share are
// split on batch boundaries and processed concurrently.
func Batches(c *bsdes.Cipher, dst, src []byte, decrypt bool) error {
	crypt := c.EncryptBlocks
	if decrypt {
		crypt = c.DecryptBlocks
	}

	share := batchesPerWorker * c.BatchSize() * bsdes.BlockSize
	if len(src) <= share {
		return crypt(dst, src)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for off := 0; off < len(src); off += share {
		end := min(off+share, len(src))
		g.Go(func() error {
			return crypt(dst[off:end], src[off:end])
		})
	}
	return g.Wait()
}
