package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegs(t *testing.T) {
	s := MakeRegs(4, 11, 14)

	assert.Equal(t, uint16(0x4810), s.Mask())
	assert.Equal(t, 3, s.Size())
	assert.True(t, s.IsSet(11))
	assert.False(t, s.IsSet(5))

	s.Clear(11)
	s.Set(10)
	s.Merge(MakeRegs(0, 1))

	var l []int

	s.Range(func(k int) bool {
		l = append(l, k)
		return true
	})

	assert.Equal(t, []int{0, 1, 4, 10, 14}, l)

	l = l[:0]

	s.Range(func(k int) bool {
		l = append(l, k)
		return len(l) < 2
	})

	assert.Equal(t, []int{0, 1}, l)
}

func TestRegsOutOfRange(t *testing.T) {
	var s Regs[uint32]

	assert.Panics(t, func() { s.Set(16) })
	assert.Panics(t, func() { s.IsSet(20) })
}
