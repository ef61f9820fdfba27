package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

var condCodes = map[ir.Cond]arm.Cond{
	ir.CondEQ: arm.EQ,
	ir.CondNE: arm.NE,
	ir.CondLT: arm.LT,
	ir.CondLE: arm.LE,
	ir.CondGT: arm.GT,
	ir.CondGE: arm.GE,
	ir.CondBL: arm.CC,
	ir.CondBE: arm.LS,
	ir.CondAB: arm.HI,
	ir.CondAE: arm.CS,
}

func condCode(c ir.Cond) arm.Cond {
	cc, ok := condCodes[c]
	if !ok {
		fault("unsupported condition: %v", c)
	}

	return cc
}

// inverse is the condition holding exactly when c does not.
func inverse(c arm.Cond) arm.Cond {
	return c ^ 1
}

// cmpRegCst sets flags for src1 - c. scratch is used only when c has no immediate form.
func (g *CodeGen) cmpRegCst(src1 arm.Reg, c uint32, scratch arm.Reg) {
	if imm, ok := aluImmediate(c); ok {
		g.a.CmpImm(src1, imm)
		return
	}

	if imm, ok := aluImmediate(-c); ok {
		g.a.CmnImm(src1, imm)
		return
	}

	must(src1 != scratch, "scratch register %v is the operand", scratch)

	g.loadConstant(scratch, c, false)
	g.a.Cmp(src1, scratch)
}

// getFlag materializes the condition as 0 or 1 without branching.
func (g *CodeGen) getFlag(r arm.Reg, c ir.Cond) {
	cc := condCode(c)

	g.a.MovCc(inverse(cc), r, arm.MakeImmediateAluOperand(0, 0))
	g.a.MovCc(cc, r, arm.MakeImmediateAluOperand(1, 0))
}

func (g *CodeGen) emitCmpAnyAnyAny(st *ir.Statement) {
	dst := g.prepareDef(st.Dst, arm.R0)
	src1 := g.prepareUse(st.Src1, arm.R1)
	src2 := g.prepareUse(st.Src2, arm.R2)

	g.a.Cmp(src1, src2)
	g.getFlag(dst, st.Cond)

	g.commit(st.Dst, dst)
}

func (g *CodeGen) emitCmpAnyAnyCst(st *ir.Statement) {
	must(st.Src2.Kind == ir.KindConstant, "constant expected: %v", st.Src2.Kind)

	dst := g.prepareDef(st.Dst, arm.R0)
	src1 := g.prepareUse(st.Src1, arm.R1)

	g.cmpRegCst(src1, st.Src2.ValueLow, arm.R2)
	g.getFlag(dst, st.Cond)

	g.commit(st.Dst, dst)
}

func (g *CodeGen) emitJmp(st *ir.Statement) {
	g.a.BCc(arm.AL, g.label(st.JmpBlock))
}

func (g *CodeGen) emitCondJmpVarVar(st *ir.Statement) {
	must(st.Src2.Kind != ir.KindConstant, "constant operand in register compare")

	src1 := g.prepareUse(st.Src1, arm.R1)
	src2 := g.prepareUse(st.Src2, arm.R2)

	g.a.Cmp(src1, src2)
	g.condJmp(st)
}

func (g *CodeGen) emitCondJmpVarCst(st *ir.Statement) {
	must(st.Src2.Kind == ir.KindConstant, "constant expected: %v", st.Src2.Kind)

	src1 := g.prepareUse(st.Src1, arm.R1)

	g.cmpRegCst(src1, st.Src2.ValueLow, arm.R2)
	g.condJmp(st)
}

func (g *CodeGen) condJmp(st *ir.Statement) {
	g.a.BCc(condCode(st.Cond), g.label(st.JmpBlock))
}
