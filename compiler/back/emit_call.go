package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

type (
	// paramState is the argument register cursor of one call site.
	paramState struct {
		index int
	}

	// paramEmitter materializes one declared parameter once its slot is known.
	paramEmitter func(ps *paramState)
)

func (g *CodeGen) prepareParam(ps *paramState) arm.Reg {
	must(ps.index < len(g.abi.params), "too many call arguments: slot %d", ps.index)

	return g.abi.params[ps.index]
}

func (g *CodeGen) commitParam(ps *paramState) {
	must(ps.index < len(g.abi.params), "too many call arguments: slot %d", ps.index)

	ps.index++
}

func alignParam64(ps *paramState) {
	if ps.index&1 != 0 {
		ps.index++
	}
}

func (g *CodeGen) pushParam(p paramEmitter) {
	g.params = append(g.params, p)
}

func (g *CodeGen) emitParamCtx(st *ir.Statement) {
	must(st.Src1.Kind == ir.KindContext, "context expected: %v", st.Src1.Kind)

	g.pushParam(func(ps *paramState) {
		g.a.Mov(g.prepareParam(ps), g.abi.base)
		g.commitParam(ps)
	})
}

func (g *CodeGen) emitParamReg(st *ir.Statement) {
	src := g.register(st.Src1.ValueLow)

	g.pushParam(func(ps *paramState) {
		g.a.Mov(g.prepareParam(ps), src)
		g.commitParam(ps)
	})
}

func (g *CodeGen) emitParamMem(st *ir.Statement) {
	src := *st.Src1

	g.pushParam(func(ps *paramState) {
		g.loadMemory(g.prepareParam(ps), &src)
		g.commitParam(ps)
	})
}

func (g *CodeGen) emitParamCst(st *ir.Statement) {
	must(st.Src1.Kind == ir.KindConstant, "constant expected: %v", st.Src1.Kind)

	c := st.Src1.ValueLow

	g.pushParam(func(ps *paramState) {
		g.loadConstant(g.prepareParam(ps), c, false)
		g.commitParam(ps)
	})
}

func (g *CodeGen) emitParamMem64(st *ir.Statement) {
	src := *st.Src1

	g.pushParam(func(ps *paramState) {
		alignParam64(ps)

		g.loadMemory64(g.prepareParam(ps), &src, 0)
		g.commitParam(ps)

		g.loadMemory64(g.prepareParam(ps), &src, 4)
		g.commitParam(ps)
	})
}

func (g *CodeGen) emitParamCst64(st *ir.Statement) {
	lo, hi := st.Src1.ValueLow, st.Src1.ValueHigh

	g.pushParam(func(ps *paramState) {
		alignParam64(ps)

		g.loadConstant(g.prepareParam(ps), lo, false)
		g.commitParam(ps)

		g.loadConstant(g.prepareParam(ps), hi, false)
		g.commitParam(ps)
	})
}

func (g *CodeGen) emitParamMem128(st *ir.Statement) {
	src := *st.Src1

	g.pushParam(func(ps *paramState) {
		g.loadMemory128Address(g.prepareParam(ps), &src)
		g.commitParam(ps)
	})
}

// emitParamRetTmp128 passes the address the callee writes its 128-bit result to.
func (g *CodeGen) emitParamRetTmp128(st *ir.Statement) {
	g.emitParamMem128(st)
}

// emitCall commits the last n declared parameters, the last one into the first slot.
func (g *CodeGen) emitCall(st *ir.Statement) {
	must(st.Src1.Kind == ir.KindConstant, "constant call target expected: %v", st.Src1.Kind)
	must(st.Src2.Kind == ir.KindConstant, "constant parameter count expected: %v", st.Src2.Kind)

	n := int(st.Src2.ValueLow)
	must(n <= len(g.params), "call takes %d parameters, %d declared", n, len(g.params))

	var ps paramState

	for i := 0; i < n; i++ {
		last := len(g.params) - 1
		p := g.params[last]
		g.params = g.params[:last]

		p(&ps)
	}

	g.callAddress(st.Src1.ValueLow)
}

// callAddress calls a linked routine. The call address register is spilled
// by the allocator before any call, so it is free here.
func (g *CodeGen) callAddress(addr uint32) {
	r := g.abi.callAddress

	g.loadConstant(r, addr, true)
	g.a.Mov(arm.LR, arm.PC)
	g.a.Mov(arm.PC, r)
}
