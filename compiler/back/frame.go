package back

import (
	"github.com/samber/lo"

	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
	"github.com/slowlang/armjit/compiler/set"
)

// registerUsage collects allocator register indexes referenced by the function.
func registerUsage(stmts []ir.Statement) (r set.Regs[uint32]) {
	for _, st := range stmts {
		regs := lo.Filter([]*ir.Symbol{st.Dst, st.Src1, st.Src2}, func(s *ir.Symbol, _ int) bool {
			return s != nil && s.Kind == ir.KindRegister
		})

		for _, s := range regs {
			must(s.ValueLow < 16, "register index out of range: %d", s.ValueLow)

			r.Set(s.ValueLow)
		}
	}

	return r
}

// savedRegisters is the set saved by the prolog: the used registers,
// the call address and base registers and the link register.
func (g *CodeGen) savedRegisters(usage set.Regs[uint32]) (r set.Regs[arm.Reg]) {
	usage.Range(func(i uint32) bool {
		r.Set(g.register(i))
		return true
	})

	r.SetAll(g.abi.callAddress, g.abi.base, arm.LR)

	return r
}

func (g *CodeGen) emitProlog(frameSize uint32, saved set.Regs[arm.Reg]) {
	must(frameSize&3 == 0, "unaligned frame size: %d", frameSize)

	g.a.Stmdb(arm.SP, saved.Mask())

	if frameSize != 0 {
		if imm, ok := aluImmediate(frameSize); ok {
			g.a.SubImm(arm.SP, arm.SP, imm)
		} else {
			g.loadConstant(arm.R12, frameSize, false)
			g.a.Sub(arm.SP, arm.SP, arm.R12)
		}
	}

	g.a.Mov(g.abi.base, g.abi.params[0])
	g.stackLevel = 0
}

func (g *CodeGen) emitEpilog(frameSize uint32, saved set.Regs[arm.Reg]) {
	if frameSize != 0 {
		if imm, ok := aluImmediate(frameSize); ok {
			g.a.AddImm(arm.SP, arm.SP, imm)
		} else {
			g.loadConstant(arm.R12, frameSize, false)
			g.a.Add(arm.SP, arm.SP, arm.R12)
		}
	}

	g.a.Ldmia(arm.SP, saved.Mask())
	g.a.Bx(arm.LR)
}
