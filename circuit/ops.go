package circuit

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// OpKind is the kind of an operation in a compiled network.
type OpKind uint8

const (
	// OpInput loads input variable i into node 1<<i.
	OpInput OpKind = iota
	// OpOne loads the all-ones constant into node 0.
	OpOne
	// OpAnd stores the AND of nodes A and B into node Dst.
	OpAnd
	// OpXor stores the XOR of the Terms nodes into output bit Dst. An empty term list yields zero.
	OpXor
)

func (k OpKind) String() string {
	switch k {
	case OpInput:
		return "input"
	case OpOne:
		return "one"
	case OpAnd:
		return "and"
	case OpXor:
		return "xor"
	default:
		return "OpKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Op is one operation of a compiled network. Nodes are named by their monomial mask.
type Op struct {
	Kind  OpKind
	Dst   uint8
	A, B  uint8
	Terms []uint8
}

func (op Op) String() string {
	switch op.Kind {
	case OpInput:
		return fmt.Sprintf("%s = input %d", NodeName(op.Dst), bits.TrailingZeros8(op.Dst))
	case OpOne:
		return NodeName(op.Dst) + " = one"
	case OpAnd:
		return fmt.Sprintf("%s = and %s %s", NodeName(op.Dst), NodeName(op.A), NodeName(op.B))
	case OpXor:
		names := make([]string, len(op.Terms))
		for i, m := range op.Terms {
			names[i] = NodeName(m)
		}
		return fmt.Sprintf("y%d = xor %s", op.Dst, strings.Join(names, " "))
	default:
		return op.Kind.String()
	}
}

// Ops lists the network as an ordered operation sequence: the six input loads, the constant load if any output has a
// constant term, one AND per composite closure mask in Order, and one XOR reduction per output bit. Nothing in the
// sequence depends on a lane width.
func (n *Network) Ops() []Op {
	ops := make([]Op, 0, Inputs+1+len(n.Order)+Outputs)
	for i := range Inputs {
		ops = append(ops, Op{Kind: OpInput, Dst: 1 << i})
	}
	if n.Closure.Has(0) {
		ops = append(ops, Op{Kind: OpOne, Dst: 0})
	}
	for _, m := range n.Order {
		if bits.OnesCount8(m) >= 2 {
			ops = append(ops, Op{Kind: OpAnd, Dst: m, A: n.Split[m][0], B: n.Split[m][1]})
		}
	}
	for bit, terms := range n.terms {
		ops = append(ops, Op{Kind: OpXor, Dst: uint8(bit), Terms: terms})
	}
	return ops
}

// NodeName returns the source-level name of a node: all1 for the constant, a<i> for input i, and t_<i>_<j>... for
// products.
func NodeName(m uint8) string {
	switch bits.OnesCount8(m) {
	case 0:
		return "all1"
	case 1:
		return "a" + strconv.Itoa(bits.TrailingZeros8(m))
	}

	var b strings.Builder
	b.WriteString("t")
	for i := range Inputs {
		if m>>i&1 == 1 {
			b.WriteString("_")
			b.WriteString(strconv.Itoa(i))
		}
	}
	return b.String()
}
