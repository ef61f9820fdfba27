package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

func (g *CodeGen) emitAddRefTmpRelReg(st *ir.Statement) {
	must(st.Src2.Kind == ir.KindRegister, "register expected: %v", st.Src2.Kind)

	g.loadRelReference(arm.R0, st.Src1)
	g.a.Add(arm.R0, arm.R0, g.register(st.Src2.ValueLow))
	g.storeTmpReference(st.Dst, arm.R0)
}

func (g *CodeGen) emitAddRefTmpRelCst(st *ir.Statement) {
	must(st.Src2.Kind == ir.KindConstant, "constant expected: %v", st.Src2.Kind)

	g.loadRelReference(arm.R0, st.Src1)
	g.addConstant(arm.R0, arm.R0, st.Src2.ValueLow, arm.R1)
	g.storeTmpReference(st.Dst, arm.R0)
}

func (g *CodeGen) emitLoadFromRefRegTmp(st *ir.Statement) {
	must(st.Dst.Kind == ir.KindRegister, "register expected: %v", st.Dst.Kind)

	g.loadTmpReference(arm.R0, st.Src1)
	g.a.Ldr(g.register(st.Dst.ValueLow), arm.R0, arm.MakeImmediateLdrAddress(0))
}

func (g *CodeGen) emitLoadFromRefMemTmp(st *ir.Statement) {
	g.loadTmpReference(arm.R0, st.Src1)
	g.a.Ldr(arm.R1, arm.R0, arm.MakeImmediateLdrAddress(0))
	g.storeMemory(st.Dst, arm.R1)
}

func (g *CodeGen) emitStoreAtRefTmpReg(st *ir.Statement) {
	must(st.Src2.Kind == ir.KindRegister, "register expected: %v", st.Src2.Kind)

	g.loadTmpReference(arm.R0, st.Src1)
	g.a.Str(g.register(st.Src2.ValueLow), arm.R0, arm.MakeImmediateLdrAddress(0))
}

func (g *CodeGen) emitStoreAtRefTmpRel(st *ir.Statement) {
	g.loadTmpReference(arm.R0, st.Src1)
	g.loadRelative(arm.R1, st.Src2)
	g.a.Str(arm.R1, arm.R0, arm.MakeImmediateLdrAddress(0))
}

func (g *CodeGen) emitStoreAtRefTmpCst(st *ir.Statement) {
	must(st.Src2.Kind == ir.KindConstant, "constant expected: %v", st.Src2.Kind)

	g.loadTmpReference(arm.R0, st.Src1)
	g.loadConstant(arm.R1, st.Src2.ValueLow, false)
	g.a.Str(arm.R1, arm.R0, arm.MakeImmediateLdrAddress(0))
}
