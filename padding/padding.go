// Package padding implements the padding schemes used by the block modes to carry messages which are not a whole
// number of blocks.
//
// PKCS7 appends n bytes of value n, always adding at least one byte, so it is unambiguous. Zero appends zero bytes up
// to the next block boundary and strips trailing zeros, which loses any trailing zeros of the message itself. None
// requires aligned input.
package padding

import (
	"errors"

	"github.com/codahale/bsdes/internal/mem"
)

var (
	// ErrInvalidPadding is returned when a padded message does not end in valid padding.
	ErrInvalidPadding = errors.New("bsdes/padding: invalid padding")

	// ErrUnaligned is returned when a message which must be block-aligned is not.
	ErrUnaligned = errors.New("bsdes/padding: input not aligned to block size")
)

// Scheme pads messages up to a multiple of a block size and removes that padding again.
type Scheme interface {
	// Pad appends src and its padding to dst and returns the resulting slice. The padded part of the result is a
	// multiple of blockSize bytes long.
	Pad(dst, src []byte, blockSize int) ([]byte, error)

	// Unpad returns the prefix of src before its padding. The result aliases src.
	Unpad(src []byte, blockSize int) ([]byte, error)
}

var (
	// PKCS7 is the padding of RFC 5652 section 6.3. It is the default for the block modes.
	PKCS7 Scheme = pkcs7{} //nolint:gochecknoglobals // stateless scheme

	// Zero pads with zero bytes, adding nothing to aligned input.
	Zero Scheme = zero{} //nolint:gochecknoglobals // stateless scheme

	// None adds no padding and rejects unaligned input.
	None Scheme = none{} //nolint:gochecknoglobals // stateless scheme
)

func checkBlockSize(blockSize int) {
	if blockSize < 1 || blockSize > 255 {
		panic("bsdes/padding: block size out of range")
	}
}

type pkcs7 struct{}

func (pkcs7) Pad(dst, src []byte, blockSize int) ([]byte, error) {
	checkBlockSize(blockSize)

	n := blockSize - len(src)%blockSize
	ret, out := mem.SliceForAppend(dst, len(src)+n)
	copy(out, src)
	for i := len(src); i < len(out); i++ {
		out[i] = byte(n)
	}
	return ret, nil
}

func (pkcs7) Unpad(src []byte, blockSize int) ([]byte, error) {
	checkBlockSize(blockSize)

	if len(src) == 0 {
		return nil, ErrInvalidPadding
	}

	n := int(src[len(src)-1])
	if n == 0 || n > blockSize || n > len(src) {
		return nil, ErrInvalidPadding
	}
	for _, b := range src[len(src)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return src[:len(src)-n], nil
}

type zero struct{}

func (zero) Pad(dst, src []byte, blockSize int) ([]byte, error) {
	checkBlockSize(blockSize)

	n := (blockSize - len(src)%blockSize) % blockSize
	ret, out := mem.SliceForAppend(dst, len(src)+n)
	copy(out, src)
	clear(out[len(src):])
	return ret, nil
}

func (zero) Unpad(src []byte, blockSize int) ([]byte, error) {
	checkBlockSize(blockSize)

	n := len(src)
	for n > 0 && src[n-1] == 0 {
		n--
	}
	return src[:n], nil
}

type none struct{}

func (none) Pad(dst, src []byte, blockSize int) ([]byte, error) {
	checkBlockSize(blockSize)

	if len(src)%blockSize != 0 {
		return nil, ErrUnaligned
	}
	return append(dst, src...), nil
}

func (none) Unpad(src []byte, blockSize int) ([]byte, error) {
	checkBlockSize(blockSize)

	return src, nil
}
