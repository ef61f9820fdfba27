package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

func (g *CodeGen) mulTmp64(signed bool) emitter {
	return func(st *ir.Statement) {
		must(st.Dst.Kind == ir.KindTemporary64, "temporary64 expected: %v", st.Dst.Kind)

		lo, hi := arm.R0, arm.R1
		src1 := g.prepareUse(st.Src1, arm.R2)
		src2 := g.prepareUse(st.Src2, arm.R3)

		must(lo != src1 && lo != src2 && hi != src1 && hi != src2, "result registers clash with operands")

		if signed {
			g.a.Smull(lo, hi, src1, src2)
		} else {
			g.a.Umull(lo, hi, src1, src2)
		}

		g.storeMemory64(st.Dst, lo, 0)
		g.storeMemory64(st.Dst, hi, 4)
	}
}

// divTmp64 stores the quotient into the low word of dst and the remainder into the high one.
// There is no hardware divide: both come from helper calls.
func (g *CodeGen) divTmp64(signed bool) emitter {
	div, mod := helperDivUnsigned, helperModUnsigned
	if signed {
		div, mod = helperDivSigned, helperModSigned
	}

	return func(st *ir.Statement) {
		must(st.Dst.Kind == ir.KindTemporary64, "temporary64 expected: %v", st.Dst.Kind)

		g.loadArg(arm.R0, st.Src1)
		g.loadArg(arm.R1, st.Src2)

		// the helper may clobber the arguments, keep them for the second call
		const args = 1<<arm.R0 | 1<<arm.R1

		g.a.Stmdb(arm.SP, args)
		g.stackLevel += 8

		g.callAddress(div.addr())
		g.storeMemory64(st.Dst, arm.R0, 0)

		g.a.Ldmia(arm.SP, args)
		g.stackLevel -= 8

		g.callAddress(mod.addr())
		g.storeMemory64(st.Dst, arm.R0, 4)
	}
}

// loadArg copies the value of s into r.
func (g *CodeGen) loadArg(r arm.Reg, s *ir.Symbol) {
	src := g.prepareUse(s, r)
	if src != r {
		g.a.Mov(r, src)
	}
}
