package rm3100

import (
	"bytes"
	"errors"

	"periph.io/x/periph/conn/physic"
)

var errBus = errors.New("bus failure")

type op struct {
	addr uint16
	w    []byte
	r    int
}

// fakeBus is a register file behind an i2c.Bus. Writes land in regs, reads
// come from regs unless reads overrides the register.
type fakeBus struct {
	regs  [256]byte
	reads map[byte][]byte
	ops   []op

	// failOn makes Tx fail when it returns true for the written bytes.
	failOn func(w []byte) bool
}

func (f *fakeBus) String() string { return "fakeBus" }

func (f *fakeBus) SetSpeed(physic.Frequency) error { return nil }

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	f.ops = append(f.ops, op{addr: addr, w: append([]byte(nil), w...), r: len(r)})
	if f.failOn != nil && f.failOn(w) {
		return errBus
	}
	if len(w) == 0 {
		return nil
	}
	reg := int(w[0])
	copy(f.regs[reg:], w[1:])
	if v, ok := f.reads[w[0]]; ok {
		copy(r, v)
		return nil
	}
	copy(r, f.regs[reg:])
	return nil
}

// writes returns the register writes seen so far.
func (f *fakeBus) writes() [][]byte {
	var out [][]byte
	for _, o := range f.ops {
		if len(o.w) > 1 {
			out = append(out, o.w)
		}
	}
	return out
}

func (f *fakeBus) reset() {
	f.ops = nil
}

func failWrite(want ...byte) func(w []byte) bool {
	return func(w []byte) bool {
		return bytes.Equal(w, want)
	}
}

func equalWrites(got, want [][]byte) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !bytes.Equal(got[i], want[i]) {
			return false
		}
	}
	return true
}
