// Package arm encodes ARMv7 A32 instructions into a byte stream.
//
// Every emitting method appends exactly one 32-bit little-endian instruction.
// Branches to labels are emitted with a zero offset and patched by
// ResolveLabelReferences once all labels of the function are marked.
package arm

import (
	"fmt"
	"math/bits"
	"strings"

	"nikand.dev/go/heap"
)

type (
	Reg   uint8
	Cond  uint8
	Shift uint8
	Label int

	// ImmediateAluOperand is an 8-bit value rotated right by 2*Rotate.
	ImmediateAluOperand struct {
		Imm    uint8
		Rotate uint8
	}

	AluLdrShift struct {
		Type     Shift
		Variable bool
		Amount   uint8 // constant shift, 0..31
		Reg      Reg   // variable shift
	}

	RegisterAluOperand struct {
		Reg   Reg
		Shift AluLdrShift
	}

	LdrAddress struct {
		Offset uint16 // 12 bits
	}

	Assembler struct {
		b []byte

		// Listing enables the textual instruction log returned by Lines.
		Listing bool
		lines   []listLine

		labels []int // label -> position, -1 if not marked
		refs   heap.Heap[labelRef]
	}

	listLine struct {
		at   int
		text string
	}

	labelRef struct {
		at    int
		label Label
	}
)

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
)

const (
	EQ Cond = iota
	NE
	CS
	CC
	MI
	PL
	VS
	VC
	HI
	LS
	GE
	LT
	GT
	LE
	AL
)

const (
	LSL Shift = iota
	LSR
	ASR
	ROR
)

var condNames = [...]string{"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC", "HI", "LS", "GE", "LT", "GT", "LE", ""}

var shiftNames = [...]string{"LSL", "LSR", "ASR", "ROR"}

func New() *Assembler {
	a := &Assembler{}
	a.refs.Less = refsLess

	return a
}

func MakeImmediateAluOperand(imm, rotate uint8) ImmediateAluOperand {
	if rotate > 15 {
		panic(fmt.Sprintf("rotate out of range: %d", rotate))
	}

	return ImmediateAluOperand{Imm: imm, Rotate: rotate}
}

func MakeConstantShift(t Shift, amount uint8) AluLdrShift {
	if amount > 31 {
		panic(fmt.Sprintf("shift amount out of range: %d", amount))
	}

	return AluLdrShift{Type: t, Amount: amount}
}

func MakeVariableShift(t Shift, r Reg) AluLdrShift {
	return AluLdrShift{Type: t, Variable: true, Reg: r}
}

func MakeRegisterAluOperand(r Reg, s AluLdrShift) RegisterAluOperand {
	return RegisterAluOperand{Reg: r, Shift: s}
}

func MakeImmediateLdrAddress(off uint32) LdrAddress {
	if off >= 1<<12 {
		panic(fmt.Sprintf("ldr offset out of range: %d", off))
	}

	return LdrAddress{Offset: uint16(off)}
}

// Value is the 32-bit constant the operand encodes.
func (o ImmediateAluOperand) Value() uint32 {
	return bits.RotateLeft32(uint32(o.Imm), -2*int(o.Rotate))
}

func (o ImmediateAluOperand) bits() uint32 {
	return 1<<25 | uint32(o.Rotate)<<8 | uint32(o.Imm)
}

func (o RegisterAluOperand) bits() uint32 {
	s := o.Shift

	if s.Variable {
		return uint32(s.Reg)<<8 | uint32(s.Type)<<5 | 1<<4 | uint32(o.Reg)
	}

	return uint32(s.Amount)<<7 | uint32(s.Type)<<5 | uint32(o.Reg)
}

func (o ImmediateAluOperand) String() string {
	return fmt.Sprintf("#%d", o.Value())
}

func (o RegisterAluOperand) String() string {
	s := o.Shift

	switch {
	case s.Variable:
		return fmt.Sprintf("%v, %v %v", o.Reg, s.Type, s.Reg)
	case s.Amount == 0 && s.Type == LSL:
		return o.Reg.String()
	default:
		return fmt.Sprintf("%v, %v #%d", o.Reg, s.Type, s.Amount)
	}
}

func (r Reg) String() string {
	switch r {
	case SP:
		return "SP"
	case LR:
		return "LR"
	case PC:
		return "PC"
	default:
		return fmt.Sprintf("R%d", int(r))
	}
}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}

	return fmt.Sprintf("cond(%d)", int(c))
}

func (s Shift) String() string {
	return shiftNames[s&3]
}

// RegList formats a STM/LDM register mask.
func RegList(mask uint16) string {
	var b strings.Builder

	b.WriteByte('{')

	for r := R0; r <= PC; r++ {
		if mask&(1<<r) == 0 {
			continue
		}

		if b.Len() > 1 {
			b.WriteString(", ")
		}

		b.WriteString(r.String())
	}

	b.WriteByte('}')

	return b.String()
}

func (a *Assembler) Len() int { return len(a.b) }

func (a *Assembler) Bytes() []byte { return a.b }

// Lines returns the instruction listing if Listing is enabled.
func (a *Assembler) Lines() []string {
	l := make([]string, len(a.lines))

	for i, x := range a.lines {
		l[i] = x.text
	}

	return l
}

// Truncate drops everything emitted after position n.
func (a *Assembler) Truncate(n int) {
	a.b = a.b[:n]

	for len(a.lines) != 0 && a.lines[len(a.lines)-1].at >= n {
		a.lines = a.lines[:len(a.lines)-1]
	}
}

// Reset prepares the assembler for a new independent stream.
func (a *Assembler) Reset() {
	a.b = a.b[:0]
	a.lines = a.lines[:0]
	a.ClearLabels()
}

func (a *Assembler) emit(w uint32, format string, args ...any) {
	a.b = append(a.b, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))

	if a.Listing {
		a.lines = append(a.lines, listLine{at: len(a.b) - 4, text: fmt.Sprintf(format, args...)})
	}
}

// Word reads the instruction at byte offset off.
func Word(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func putWord(b []byte, off int, w uint32) {
	b[off] = byte(w)
	b[off+1] = byte(w >> 8)
	b[off+2] = byte(w >> 16)
	b[off+3] = byte(w >> 24)
}
