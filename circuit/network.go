package circuit

import (
	"cmp"
	"math/bits"
	"slices"
	"sync"

	"github.com/codahale/bsdes/internal/tables"
)

// Network is the compiled XOR/AND network of one S-box.
type Network struct {
	// Outputs holds the algebraic normal form of each output bit, bit 0 first.
	Outputs [Outputs]MonomialSet

	// Closure is the union of all output monomials and all of their nonempty proper submasks.
	Closure MonomialSet

	// Order lists the closure by ascending population count, then by value. Every split child precedes its parent.
	Order []uint8

	// Cost is the number of AND gates needed to build each closure mask. Masks with at most one bit cost nothing.
	Cost [64]int

	// Split is the pair of disjoint submasks whose AND builds each closure mask with two or more bits.
	Split [64][2]uint8

	live  MonomialSet
	gates []gate
	terms [Outputs][]uint8
}

type gate struct {
	out, a, b uint8
}

// Compile builds the network of an S-box stored as four rows of sixteen columns.
func Compile(box *[64]uint8) *Network {
	var outputs [Outputs]MonomialSet
	for bit := range Outputs {
		outputs[bit] = ANF(Truth(box, bit))
	}
	return Optimize(outputs)
}

// DES returns the networks of the eight DES S-boxes. They are compiled on first use and shared afterwards; callers must
// not modify them.
func DES() [8]*Network {
	return desNetworks()
}

var desNetworks = sync.OnceValue(func() [8]*Network { //nolint:gochecknoglobals // compiled once
	var nets [8]*Network
	for i := range tables.SBoxes {
		nets[i] = Compile(&tables.SBoxes[i])
	}
	return nets
})

// Closure returns the union of the given monomial sets together with every nonempty proper submask of each monomial.
func Closure(sets ...MonomialSet) MonomialSet {
	var c MonomialSet
	for _, s := range sets {
		for m := range s.All() {
			c = c.With(m)
			for sub := (m - 1) & m; sub != 0; sub = (sub - 1) & m {
				c = c.With(sub)
			}
		}
	}
	return c
}

// Optimize assigns every monomial of the four output functions a binary AND decomposition with the fewest gates,
// building each composite mask from two disjoint submasks already present in the closure.
func Optimize(outputs [Outputs]MonomialSet) *Network {
	n := &Network{Outputs: outputs, Closure: Closure(outputs[:]...)}

	n.Order = slices.Collect(n.Closure.All())
	slices.SortFunc(n.Order, func(a, b uint8) int {
		return cmp.Or(cmp.Compare(bits.OnesCount8(a), bits.OnesCount8(b)), cmp.Compare(a, b))
	})

	for _, m := range n.Order {
		if bits.OnesCount8(m) <= 1 {
			continue
		}

		best := -1
		for a := (m - 1) & m; a != 0; a = (a - 1) & m {
			b := m ^ a
			if b == 0 {
				continue
			}
			if c := n.Cost[a] + n.Cost[b] + 1; best < 0 || c < best {
				best = c
				n.Split[m] = [2]uint8{a, b}
			}
		}
		if best < 0 {
			panic("circuit: no split for composite monomial")
		}
		n.Cost[m] = best
	}

	n.live = n.liveness()
	for _, m := range n.Order {
		if bits.OnesCount8(m) >= 2 && n.live.Has(m) {
			n.gates = append(n.gates, gate{out: m, a: n.Split[m][0], b: n.Split[m][1]})
		}
	}
	for bit, s := range outputs {
		n.terms[bit] = slices.Collect(s.All())
	}

	return n
}

// liveness marks every mask read, directly or through splits, by an output.
func (n *Network) liveness() MonomialSet {
	var live MonomialSet
	var mark func(m uint8)
	mark = func(m uint8) {
		if live.Has(m) {
			return
		}
		live = live.With(m)
		if bits.OnesCount8(m) >= 2 {
			mark(n.Split[m][0])
			mark(n.Split[m][1])
		}
	}
	for _, s := range n.Outputs {
		for m := range s.All() {
			mark(m)
		}
	}
	return live
}

// Live returns the closure masks whose value reaches an output. Closure masks outside this set are submasks that no
// chosen split ended up using.
func (n *Network) Live() MonomialSet {
	return n.live
}

// Stats reports the gate counts of the network: ANDs over the whole closure, ANDs reaching an output, and XORs.
func (n *Network) Stats() (closureANDs, liveANDs, xors int) {
	for _, m := range n.Order {
		if bits.OnesCount8(m) >= 2 {
			closureANDs++
		}
	}
	for _, s := range n.Outputs {
		if l := s.Len(); l > 1 {
			xors += l - 1
		}
	}
	return closureANDs, len(n.gates), xors
}

// Eval evaluates the network lane-wise: in[i] holds variable i of every lane and out[j] receives output bit j.
func Eval[W Word](n *Network, in *[Inputs]W, out *[Outputs]W) {
	var reg [64]W
	reg[0] = ^W(0)
	for i := range Inputs {
		reg[1<<i] = in[i]
	}
	for _, g := range n.gates {
		reg[g.out] = reg[g.a] & reg[g.b]
	}
	for j, terms := range n.terms {
		var acc W
		for _, m := range terms {
			acc ^= reg[m]
		}
		out[j] = acc
	}
}
