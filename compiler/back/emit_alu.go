package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

type (
	aluImmOp func(rd, rn arm.Reg, imm arm.ImmediateAluOperand)

	// aluOp describes one binary operation in its encodable forms.
	// immNeg computes the same result from the negated constant,
	// immNot from the complemented one. Either may be nil.
	aluOp struct {
		name string

		reg    func(rd, rn, rm arm.Reg)
		imm    aluImmOp
		immNeg aluImmOp
		immNot aluImmOp
	}
)

func (g *CodeGen) aluGenericAnyAny(op aluOp) emitter {
	return func(st *ir.Statement) {
		dst := g.prepareDef(st.Dst, arm.R0)
		src1 := g.prepareUse(st.Src1, arm.R1)
		src2 := g.prepareUse(st.Src2, arm.R2)

		op.reg(dst, src1, src2)

		g.commit(st.Dst, dst)
	}
}

func (g *CodeGen) aluGenericAnyCst(op aluOp) emitter {
	return func(st *ir.Statement) {
		must(st.Src2.Kind == ir.KindConstant, "constant expected: %v", st.Src2.Kind)

		dst := g.prepareDef(st.Dst, arm.R0)
		src1 := g.prepareUse(st.Src1, arm.R1)
		c := st.Src2.ValueLow

		if imm, ok := aluImmediate(c); ok {
			op.imm(dst, src1, imm)
		} else if imm, ok := aluImmediate(-c); ok && op.immNeg != nil {
			op.immNeg(dst, src1, imm)
		} else if imm, ok := aluImmediate(^c); ok && op.immNot != nil {
			op.immNot(dst, src1, imm)
		} else {
			cst := g.prepareUse(st.Src2, arm.R2)
			must(cst != dst && cst != src1, "constant register %v clashes with operands", cst)

			op.reg(dst, src1, cst)
		}

		g.commit(st.Dst, dst)
	}
}

func (g *CodeGen) shiftGeneric(t arm.Shift) emitter {
	return func(st *ir.Statement) {
		dst := g.prepareDef(st.Dst, arm.R0)
		src1 := g.prepareUse(st.Src1, arm.R1)
		shift := g.aluShift(t, st.Src2, arm.R2)

		g.a.MovOp(dst, arm.MakeRegisterAluOperand(src1, shift))

		g.commit(st.Dst, dst)
	}
}
