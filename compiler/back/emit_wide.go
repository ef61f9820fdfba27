package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

func (g *CodeGen) emitMov64MemMem(st *ir.Statement) {
	g.loadMemory64(arm.R0, st.Src1, 0)
	g.loadMemory64(arm.R1, st.Src1, 4)
	g.storeMemory64(st.Dst, arm.R0, 0)
	g.storeMemory64(st.Dst, arm.R1, 4)
}

func (g *CodeGen) emitMov64MemCst(st *ir.Statement) {
	g.loadConstant(arm.R0, st.Src1.ValueLow, false)
	g.loadConstant(arm.R1, st.Src1.ValueHigh, false)
	g.storeMemory64(st.Dst, arm.R0, 0)
	g.storeMemory64(st.Dst, arm.R1, 4)
}

// alu64 computes dst = src1 op src2 on register pairs R0:R1 and R2:R3.
// lo must set the carry hi consumes when the operation propagates one.
func (g *CodeGen) alu64(lo, hi func(rd, rn, rm arm.Reg)) emitter {
	return func(st *ir.Statement) {
		g.loadMemory64(arm.R0, st.Src1, 0)
		g.loadMemory64(arm.R1, st.Src1, 4)

		if st.Src2.Kind == ir.KindConstant64 {
			g.loadConstant(arm.R2, st.Src2.ValueLow, false)
			g.loadConstant(arm.R3, st.Src2.ValueHigh, false)
		} else {
			g.loadMemory64(arm.R2, st.Src2, 0)
			g.loadMemory64(arm.R3, st.Src2, 4)
		}

		lo(arm.R0, arm.R0, arm.R2)
		hi(arm.R1, arm.R1, arm.R3)

		g.storeMemory64(st.Dst, arm.R0, 0)
		g.storeMemory64(st.Dst, arm.R1, 4)
	}
}
