package circuit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/sys/cpu"
)

// Backend renders vector operations for one target. Expressions are strings in the target language.
type Backend interface {
	// Name identifies the backend.
	Name() string
	// LaneWidth is the number of parallel lanes in one vector.
	LaneWidth() int
	// Header and Footer open and close the emitted function.
	Header() string
	Footer() string
	// Declare binds an expression to a new local name.
	Declare(name, expr string) string
	// Input loads expanded bit index from the round function's 48 inputs.
	Input(index int) string
	// Store writes an expression to output bit index of the 32 substitution outputs.
	Store(index int, expr string) string
	// Ones and Zero are the all-ones and all-zeros vectors.
	Ones() string
	Zero() string
	// And and Xor combine two vectors lane-wise.
	And(a, b string) string
	Xor(a, b string) string
}

// Emit renders the networks of consecutive S-boxes through a backend. S-box k reads expanded bits 6k through 6k+5,
// the first being its most significant input, and writes substitution outputs 4k through 4k+3, most significant
// first. Operations whose result no output reads are skipped.
func Emit(w io.Writer, b Backend, nets []*Network) error {
	var sb strings.Builder
	sb.WriteString(b.Header())

	for k, n := range nets {
		live := n.Live()
		ands, _, xors := n.Stats()
		_, _ = fmt.Fprintf(&sb, "\t// S%d: %d AND (%d in closure), %d XOR\n\t{\n", k+1, len(n.gates), ands, xors)

		for _, op := range n.Ops() {
			switch op.Kind {
			case OpInput, OpOne, OpAnd:
				if !live.Has(op.Dst) {
					continue
				}
				expr := b.Ones()
				switch op.Kind { //nolint:exhaustive // only node-producing kinds reach here
				case OpInput:
					expr = b.Input(6*k + Inputs - 1 - bitIndex(op.Dst))
				case OpAnd:
					expr = b.And(NodeName(op.A), NodeName(op.B))
				}
				sb.WriteString("\t\t" + b.Declare(NodeName(op.Dst), expr) + "\n")
			case OpXor:
				expr := b.Zero()
				for i, m := range op.Terms {
					if i == 0 {
						expr = NodeName(m)
					} else {
						expr = b.Xor(expr, NodeName(m))
					}
				}
				sb.WriteString("\t\t" + b.Declare("y"+strconv.Itoa(int(op.Dst)), expr) + "\n")
			}
		}

		for j := Outputs - 1; j >= 0; j-- {
			sb.WriteString("\t\t" + b.Store(4*k+Outputs-1-j, "y"+strconv.Itoa(j)) + "\n")
		}
		sb.WriteString("\t}\n")
	}

	sb.WriteString(b.Footer())
	_, err := io.WriteString(w, sb.String())
	return err
}

func bitIndex(m uint8) int {
	for i := range Inputs {
		if m == 1<<i {
			return i
		}
	}
	panic("circuit: not an input node")
}

// GoBackend returns a backend emitting a Go function in package pkg over the unsigned integer type word, one lane per
// bit.
func GoBackend(pkg, word string) Backend {
	return goBackend{pkg: pkg, word: word}
}

type goBackend struct {
	pkg, word string
}

func (g goBackend) Name() string { return "go" }

func (g goBackend) LaneWidth() int {
	if n, err := strconv.Atoi(strings.TrimPrefix(g.word, "uint")); err == nil {
		return n
	}
	return strconv.IntSize
}

func (g goBackend) Header() string {
	return fmt.Sprintf("// Code generated by sboxgen. DO NOT EDIT.\n\npackage %s\n\n"+
		"func sboxes(e *[48]%s, s *[32]%s) {\n", g.pkg, g.word, g.word)
}

func (g goBackend) Footer() string                   { return "}\n" }
func (g goBackend) Declare(name, expr string) string { return name + " := " + expr }
func (g goBackend) Input(index int) string           { return "e[" + strconv.Itoa(index) + "]" }
func (g goBackend) Store(index int, expr string) string {
	return "s[" + strconv.Itoa(index) + "] = " + expr
}
func (g goBackend) Ones() string           { return "^" + g.word + "(0)" }
func (g goBackend) Zero() string           { return g.word + "(0)" }
func (g goBackend) And(a, b string) string { return a + " & " + b }
func (g goBackend) Xor(a, b string) string { return a + " ^ " + b }

// AVX2Backend returns a backend emitting C with 256-bit AVX2 intrinsics.
func AVX2Backend() Backend {
	return intrinsics{name: "avx2", width: 256, vec: "__m256i", pfx: "_mm256", suffix: "si256"}
}

// AVX512Backend returns a backend emitting C with 512-bit AVX-512F intrinsics.
func AVX512Backend() Backend {
	return intrinsics{name: "avx512", width: 512, vec: "__m512i", pfx: "_mm512", suffix: "si512"}
}

type intrinsics struct {
	name, vec, pfx, suffix string
	width                  int
}

func (x intrinsics) Name() string   { return x.name }
func (x intrinsics) LaneWidth() int { return x.width }

func (x intrinsics) Header() string {
	return "// Code generated by sboxgen. DO NOT EDIT.\n\n#include <immintrin.h>\n\n" +
		"static inline void sboxes(const " + x.vec + " *Ebits, " + x.vec + " *S_out) {\n"
}

func (x intrinsics) Footer() string { return "}\n" }

func (x intrinsics) Declare(name, expr string) string {
	return x.vec + " " + name + " = " + expr + ";"
}

func (x intrinsics) Input(index int) string { return "Ebits[" + strconv.Itoa(index) + "]" }

func (x intrinsics) Store(index int, expr string) string {
	return "S_out[" + strconv.Itoa(index) + "] = " + expr + ";"
}

func (x intrinsics) Ones() string { return x.pfx + "_set1_epi32(-1)" }
func (x intrinsics) Zero() string { return x.pfx + "_setzero_" + x.suffix + "()" }

func (x intrinsics) And(a, b string) string {
	return x.pfx + "_and_" + x.suffix + "(" + a + ", " + b + ")"
}

func (x intrinsics) Xor(a, b string) string {
	return x.pfx + "_xor_" + x.suffix + "(" + a + ", " + b + ")"
}

// HostBackend returns the widest backend the current CPU supports: AVX-512, then AVX2, then portable Go over uint64.
func HostBackend() Backend {
	switch {
	case cpu.X86.HasAVX512F:
		return AVX512Backend()
	case cpu.X86.HasAVX2:
		return AVX2Backend()
	default:
		return GoBackend("main", "uint64")
	}
}

// BackendByName returns the backend with the given name: go, avx2, avx512, or auto for HostBackend. The Go backend,
// including the auto fallback, is emitted in package pkg over word.
func BackendByName(name, pkg, word string) (Backend, error) {
	switch name {
	case "auto":
		if b := HostBackend(); b.Name() != "go" {
			return b, nil
		}
		return GoBackend(pkg, word), nil
	case "go":
		return GoBackend(pkg, word), nil
	case "avx2":
		return AVX2Backend(), nil
	case "avx512":
		return AVX512Backend(), nil
	default:
		return nil, fmt.Errorf("circuit: unknown backend %q", name)
	}
}
