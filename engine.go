package bsdes

import (
	"github.com/codahale/bsdes/circuit"
	"github.com/codahale/bsdes/internal/bitslice"
	"github.com/codahale/bsdes/internal/keysched"
	"github.com/codahale/bsdes/internal/tables"
)

// state is one batch as bit-planes: planes 0-31 are the left half, 32-63 the right half.
type state[W circuit.Word] [bitslice.Planes]W

// engine is a bitsliced TDES instance over plane word W, one block per bit of W.
type engine[W circuit.Word] struct {
	nets [8]*circuit.Network
	keys [3]keysched.Planes[W]
}

func newEngine[W circuit.Word](sched *[3]keysched.Scalar) *engine[W] {
	e := &engine[W]{nets: circuit.DES()}
	for i := range sched {
		keysched.Expand(&sched[i], &e.keys[i])
	}
	return e
}

func (e *engine[W]) lanes() int {
	return bitslice.Lanes[W]()
}

func (e *engine[W]) reset() {
	clear(e.keys[:])
}

// crypt runs every batch of src through TDES into dst. len(src) must be a multiple of the batch size in bytes and
// dst must be at least as long; a partial batch panics with bitslice.ErrBatchSize.
func (e *engine[W]) crypt(dst, src []byte, decrypt bool) {
	n := e.lanes() * BlockSize
	for off := 0; off < len(src); off += n {
		end := min(off+n, len(src))

		var s state[W]
		if err := bitslice.Load((*[bitslice.Planes]W)(&s), src[off:end]); err != nil {
			panic(err)
		}
		if decrypt {
			e.decrypt3(&s)
		} else {
			e.encrypt3(&s)
		}
		if err := bitslice.Store(dst[off:min(off+n, len(dst))], (*[bitslice.Planes]W)(&s)); err != nil {
			panic(err)
		}
	}
}

// encrypt3 is EDE: encrypt with key 1, decrypt with key 2, encrypt with key 3.
func (e *engine[W]) encrypt3(s *state[W]) {
	e.des(s, 0, false)
	e.des(s, 1, true)
	e.des(s, 2, false)
}

// decrypt3 inverts encrypt3.
func (e *engine[W]) decrypt3(s *state[W]) {
	e.des(s, 2, true)
	e.des(s, 1, false)
	e.des(s, 0, true)
}

// des runs one full DES pass with the given key. Decryption walks the same subkeys from round 15 down to round 0.
func (e *engine[W]) des(s *state[W], key int, decrypt bool) {
	permute(s, &tables.IP)

	var f [32]W
	for i := range keysched.Rounds {
		round := i
		if decrypt {
			round = keysched.Rounds - 1 - i
		}
		e.feistel(s, &f, round, key)
		for j := range 32 {
			s[j], s[32+j] = s[32+j], s[j]^f[j]
		}
	}

	// undo the last swap
	for j := range 32 {
		s[j], s[32+j] = s[32+j], s[j]
	}

	permute(s, &tables.FP)
}

// feistel computes the round function of the right half of s into f: expansion, key mixing, the eight S-box networks,
// and the P permutation.
func (e *engine[W]) feistel(s *state[W], f *[32]W, round, key int) {
	k := &e.keys[key][round]

	var x [keysched.SubkeyBits]W
	for i, src := range tables.E {
		x[i] = s[32+int(src)-1] ^ k[i]
	}

	var sout [32]W
	var in [circuit.Inputs]W
	var out [circuit.Outputs]W
	for b, n := range e.nets {
		for i := range circuit.Inputs {
			in[i] = x[6*b+circuit.Inputs-1-i]
		}
		circuit.Eval(n, &in, &out)
		for j := range circuit.Outputs {
			sout[4*b+circuit.Outputs-1-j] = out[j]
		}
	}

	for i, src := range tables.P {
		f[i] = sout[src-1]
	}
}

// permute rearranges the planes of s by a 1-based 64-entry table: plane i takes plane table[i]-1.
func permute[W circuit.Word](s *state[W], table *[64]uint8) {
	t := *s
	for i, src := range table {
		s[i] = t[src-1]
	}
}
