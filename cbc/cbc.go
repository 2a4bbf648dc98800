// Package cbc implements cipher block chaining mode over a bitsliced DES cipher.
//
// Encryption is inherently sequential and runs one block at a time on the cipher's scalar path. Decryption has no
// chaining dependency, so whole batches of ciphertext are decrypted at once by the bitsliced engine before being XORed
// with the preceding ciphertext blocks.
package cbc

import (
	"crypto/cipher"

	"github.com/codahale/bsdes"
	"github.com/codahale/bsdes/ecb"
	"github.com/codahale/bsdes/internal/mem"
	"github.com/codahale/bsdes/padding"
)

// NewEncrypter returns a cipher.BlockMode which encrypts in CBC mode with the given cipher and IV. The IV must be
// one block long.
func NewEncrypter(c *bsdes.Cipher, iv []byte) cipher.BlockMode {
	return &encrypter{c: c, iv: checkIV(iv)}
}

// NewDecrypter returns a cipher.BlockMode which decrypts in CBC mode with the given cipher and IV. The IV must be
// one block long.
func NewDecrypter(c *bsdes.Cipher, iv []byte) cipher.BlockMode {
	return &decrypter{c: c, iv: checkIV(iv)}
}

// Encrypt pads plaintext with the given scheme and returns it encrypted in CBC mode under iv.
func Encrypt(c *bsdes.Cipher, iv []byte, p padding.Scheme, plaintext []byte) ([]byte, error) {
	out, err := p.Pad(nil, plaintext, bsdes.BlockSize)
	if err != nil {
		return nil, err
	}
	NewEncrypter(c, iv).CryptBlocks(out, out)
	return out, nil
}

// Decrypt decrypts ciphertext in CBC mode under iv and removes the given padding scheme.
func Decrypt(c *bsdes.Cipher, iv []byte, p padding.Scheme, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%bsdes.BlockSize != 0 {
		return nil, padding.ErrUnaligned
	}
	out := make([]byte, len(ciphertext))
	NewDecrypter(c, iv).CryptBlocks(out, ciphertext)
	return p.Unpad(out, bsdes.BlockSize)
}

func checkIV(iv []byte) [bsdes.BlockSize]byte {
	if len(iv) != bsdes.BlockSize {
		panic("bsdes/cbc: IV length must equal block size")
	}
	return [bsdes.BlockSize]byte(iv)
}

func checkBlocks(dst, src []byte) {
	if len(src)%bsdes.BlockSize != 0 {
		panic("bsdes/cbc: input not full blocks")
	}
	if len(dst) < len(src) {
		panic("bsdes/cbc: output smaller than input")
	}
}

type encrypter struct {
	c  *bsdes.Cipher
	iv [bsdes.BlockSize]byte
}

func (e *encrypter) BlockSize() int {
	return bsdes.BlockSize
}

func (e *encrypter) CryptBlocks(dst, src []byte) {
	checkBlocks(dst, src)

	for i := 0; i < len(src); i += bsdes.BlockSize {
		block := dst[i : i+bsdes.BlockSize]
		mem.XOR(block, src[i:i+bsdes.BlockSize], e.iv[:])
		e.c.Encrypt(block, block)
		copy(e.iv[:], block)
	}
}

// SetIV resets the chaining value, as crypto/cipher's CBC modes allow.
func (e *encrypter) SetIV(iv []byte) {
	e.iv = checkIV(iv)
}

type decrypter struct {
	c  *bsdes.Cipher
	iv [bsdes.BlockSize]byte
}

func (d *decrypter) BlockSize() int {
	return bsdes.BlockSize
}

func (d *decrypter) CryptBlocks(dst, src []byte) {
	checkBlocks(dst, src)
	if len(src) == 0 {
		return
	}

	plain := make([]byte, len(src))
	head, _ := mem.Split(src, d.c.BatchSize()*bsdes.BlockSize)
	if err := ecb.Batches(d.c, plain[:len(head)], head, true); err != nil {
		panic(err)
	}
	for i := len(head); i < len(src); i += bsdes.BlockSize {
		d.c.Decrypt(plain[i:], src[i:])
	}

	// Walk backwards so that in-place decryption reads each previous ciphertext block before overwriting it.
	last := len(src) - bsdes.BlockSize
	next := [bsdes.BlockSize]byte(src[last:])
	for i := last; i > 0; i -= bsdes.BlockSize {
		mem.XOR(dst[i:i+bsdes.BlockSize], plain[i:i+bsdes.BlockSize], src[i-bsdes.BlockSize:i])
	}
	mem.XOR(dst[:bsdes.BlockSize], plain[:bsdes.BlockSize], d.iv[:])
	d.iv = next
}

// SetIV resets the chaining value, as crypto/cipher's CBC modes allow.
func (d *decrypter) SetIV(iv []byte) {
	d.iv = checkIV(iv)
}
