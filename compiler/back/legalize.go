package back

import (
	"math/bits"

	"github.com/slowlang/armjit/compiler/asm/arm"
)

// TryAluImmediate finds the rotated 8-bit immediate form of c.
// rot is the encoder's rotate field: c == imm ROR 2*rot.
func TryAluImmediate(c uint32) (imm, rot uint8, ok bool) {
	for i := 0; i < 16; i++ {
		if c&0xff == c {
			return uint8(c), uint8(i), true
		}

		c = bits.RotateLeft32(c, 2)
	}

	return 0, 0, false
}

func aluImmediate(c uint32) (arm.ImmediateAluOperand, bool) {
	imm, rot, ok := TryAluImmediate(c)
	if !ok {
		return arm.ImmediateAluOperand{}, false
	}

	return arm.MakeImmediateAluOperand(imm, rot), true
}

// loadConstant materializes c in r. Relocatable constants always take
// the MOVW/MOVT pair so the link step can patch them in place.
func (g *CodeGen) loadConstant(r arm.Reg, c uint32, relocatable bool) {
	if !relocatable {
		if imm, ok := aluImmediate(c); ok {
			g.a.MovImm(r, imm)
			return
		}

		if imm, ok := aluImmediate(^c); ok {
			g.a.MvnImm(r, imm)
			return
		}
	}

	g.a.Movw(r, uint16(c))

	if relocatable || c>>16 != 0 {
		g.a.Movt(r, uint16(c>>16))
	}

	if relocatable && g.externalSymbolReferenced != nil {
		g.externalSymbolReferenced(c, g.a.Len()-8)
	}
}

// addConstant emits rd = rn + c using the cheapest form.
// scratch is clobbered only when c has no immediate form.
func (g *CodeGen) addConstant(rd, rn arm.Reg, c uint32, scratch arm.Reg) {
	if imm, ok := aluImmediate(c); ok {
		g.a.AddImm(rd, rn, imm)
		return
	}

	if imm, ok := aluImmediate(-c); ok {
		g.a.SubImm(rd, rn, imm)
		return
	}

	must(scratch != rn, "scratch register %v is the operand", scratch)

	g.loadConstant(scratch, c, false)
	g.a.Add(rd, rn, scratch)
}
