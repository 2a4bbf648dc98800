// Package circuit compiles 6-to-4 bit substitution boxes into networks of XOR and AND gates.
//
// Each output bit of an S-box is a Boolean function of six variables. Its truth table is converted to algebraic normal
// form with the Möbius transform, giving a set of monomials (AND-products of input variables) whose XOR reproduces the
// function. The monomials of all four output bits are then closed under taking submasks, and a dynamic program over
// that closure picks a binary AND decomposition for every composite monomial. Node identity is the monomial mask, so a
// product needed by several output bits is built once.
//
// The resulting Network can be evaluated in-process on any unsigned machine word with Eval, where every bit of the
// word is an independent lane, or rendered as source code for a vector instruction set through a Backend.
//
// The decomposition is minimal only among binary splits of monomials inside the closure. It does not search arbitrary
// factorizations and is not a proof of circuit minimality.
package circuit

import (
	"iter"
	"math/bits"
)

// Word is the set of machine words a network can be evaluated on. Each bit of a word is one lane.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Inputs and Outputs are the number of S-box input and output bits.
const (
	Inputs  = 6
	Outputs = 4
)

// TruthTable is a Boolean function of six variables. Bit x is the function's value at input x.
type TruthTable uint64

// At returns the value of the function at the six-bit input x.
func (t TruthTable) At(x uint8) bool {
	return t>>(x&63)&1 == 1
}

// Truth extracts the truth table of one output bit of an S-box stored as four rows of sixteen columns. The row is
// selected by the outer input bits (bit 5 high, bit 0 low) and the column by the inner bits 1 through 4. Output bit 0
// is the least significant bit of the table entry.
func Truth(box *[64]uint8, bit int) TruthTable {
	if bit < 0 || bit >= Outputs {
		panic("circuit: output bit out of range")
	}

	var t TruthTable
	for x := range 64 {
		row := (x>>5)<<1 | x&1
		col := (x >> 1) & 0xf
		t |= TruthTable((box[16*row+col]>>bit)&1) << x
	}
	return t
}

// MonomialSet is a set of monomials. Bit m is set if the monomial with variable mask m is present; mask 0 is the
// constant term.
type MonomialSet uint64

// Has reports whether the monomial m is in the set.
func (s MonomialSet) Has(m uint8) bool {
	return s>>(m&63)&1 == 1
}

// With returns the set with the monomial m added.
func (s MonomialSet) With(m uint8) MonomialSet {
	return s | 1<<(m&63)
}

// Len returns the number of monomials in the set.
func (s MonomialSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// All yields the monomials of the set in ascending mask order.
func (s MonomialSet) All() iter.Seq[uint8] {
	return func(yield func(uint8) bool) {
		for v := uint64(s); v != 0; v &= v - 1 {
			if !yield(uint8(bits.TrailingZeros64(v))) {
				return
			}
		}
	}
}

// Truth returns the function whose algebraic normal form is s.
func (s MonomialSet) Truth() TruthTable {
	return TruthTable(Mobius(uint64(s)))
}

// mobiusMasks[i] selects the inputs with variable i set.
var mobiusMasks = [Inputs]uint64{ //nolint:gochecknoglobals // constant table
	0xaaaaaaaaaaaaaaaa,
	0xcccccccccccccccc,
	0xf0f0f0f0f0f0f0f0,
	0xff00ff00ff00ff00,
	0xffff0000ffff0000,
	0xffffffff00000000,
}

// Mobius applies the Möbius transform over GF(2) to a 64-entry table packed into a word. For each variable i, every
// entry at an input x with bit i set is XORed with the entry at x with bit i cleared. The transform is its own inverse.
func Mobius(v uint64) uint64 {
	for i, m := range mobiusMasks {
		v ^= (v << (uint(1) << i)) & m
	}
	return v
}

// ANF returns the algebraic normal form of a truth table.
func ANF(t TruthTable) MonomialSet {
	return MonomialSet(Mobius(uint64(t)))
}
