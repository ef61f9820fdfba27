package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

func (g *CodeGen) emitNop(st *ir.Statement) {}

func (g *CodeGen) emitMovRegReg(st *ir.Statement) {
	g.a.Mov(g.register(st.Dst.ValueLow), g.register(st.Src1.ValueLow))
}

func (g *CodeGen) emitMovRegMem(st *ir.Statement) {
	g.loadMemory(g.register(st.Dst.ValueLow), st.Src1)
}

func (g *CodeGen) emitMovRegCst(st *ir.Statement) {
	must(st.Dst.Kind == ir.KindRegister, "register expected: %v", st.Dst.Kind)
	must(st.Src1.Kind == ir.KindConstant, "constant expected: %v", st.Src1.Kind)

	g.loadConstant(g.register(st.Dst.ValueLow), st.Src1.ValueLow, false)
}

func (g *CodeGen) emitMovMemReg(st *ir.Statement) {
	must(st.Src1.Kind == ir.KindRegister, "register expected: %v", st.Src1.Kind)

	g.storeMemory(st.Dst, g.register(st.Src1.ValueLow))
}

func (g *CodeGen) emitMovMemMem(st *ir.Statement) {
	g.loadMemory(arm.R0, st.Src1)
	g.storeMemory(st.Dst, arm.R0)
}

func (g *CodeGen) emitMovMemCst(st *ir.Statement) {
	must(st.Src1.Kind == ir.KindConstant, "constant expected: %v", st.Src1.Kind)

	g.loadConstant(arm.R0, st.Src1.ValueLow, false)
	g.storeMemory(st.Dst, arm.R0)
}

func (g *CodeGen) emitNotRegReg(st *ir.Statement) {
	must(st.Dst.Kind == ir.KindRegister, "register expected: %v", st.Dst.Kind)
	must(st.Src1.Kind == ir.KindRegister, "register expected: %v", st.Src1.Kind)

	g.a.Mvn(g.register(st.Dst.ValueLow), g.register(st.Src1.ValueLow))
}

func (g *CodeGen) emitNotMemReg(st *ir.Statement) {
	must(st.Src1.Kind == ir.KindRegister, "register expected: %v", st.Src1.Kind)

	g.a.Mvn(arm.R1, g.register(st.Src1.ValueLow))
	g.storeMemory(st.Dst, arm.R1)
}

func (g *CodeGen) emitNotMemMem(st *ir.Statement) {
	g.loadMemory(arm.R0, st.Src1)
	g.a.Mvn(arm.R1, arm.R0)
	g.storeMemory(st.Dst, arm.R1)
}

// Call results come back in R0 (and R1 for the high word).

func (g *CodeGen) emitRetValReg(st *ir.Statement) {
	must(st.Dst.Kind == ir.KindRegister, "register expected: %v", st.Dst.Kind)

	g.a.Mov(g.register(st.Dst.ValueLow), arm.R0)
}

func (g *CodeGen) emitRetValTmp(st *ir.Statement) {
	g.storeTemporary(st.Dst, arm.R0)
}

func (g *CodeGen) emitRetValMem64(st *ir.Statement) {
	g.storeMemory64(st.Dst, arm.R0, 0)
	g.storeMemory64(st.Dst, arm.R1, 4)
}
