package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~uint8 | ~uint32
	}

	// Regs is a set of up to 16 registers, the shape of an STM/LDM register list.
	Regs[K Key] uint16
)

func MakeRegs[K Key](k ...K) (s Regs[K]) {
	s.SetAll(k...)

	return s
}

func (s *Regs[K]) Set(k K) {
	*s |= 1 << check(k)
}

func (s *Regs[K]) SetAll(k ...K) {
	for _, k := range k {
		s.Set(k)
	}
}

func (s *Regs[K]) Clear(k K) {
	*s &^= 1 << check(k)
}

func (s Regs[K]) IsSet(k K) bool {
	return s&(1<<check(k)) != 0
}

func (s *Regs[K]) Merge(x Regs[K]) {
	*s |= x
}

func (s Regs[K]) Size() int {
	return bits.OnesCount16(uint16(s))
}

func (s Regs[K]) Mask() uint16 { return uint16(s) }

// Range calls f for every set register in ascending order until f returns false.
func (s Regs[K]) Range(f func(k K) bool) {
	for x := uint16(s); x != 0; x &= x - 1 {
		if !f(K(bits.TrailingZeros16(x))) {
			return
		}
	}
}

func (s Regs[K]) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(k K) bool {
		b = e.AppendInt(b, int(k))

		return true
	})

	b = e.AppendBreak(b)

	return b
}

func check[K Key](k K) int {
	if int(k) < 0 || int(k) >= 16 {
		panic("register out of range")
	}

	return int(k)
}
