package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

// prepareDef returns the register a definition of s is computed into.
func (g *CodeGen) prepareDef(s *ir.Symbol, pref arm.Reg) arm.Reg {
	switch {
	case s.Kind == ir.KindRegister:
		return g.register(s.ValueLow)
	case s.IsMemory():
		return pref
	}

	fault("unexpected definition symbol: %v", s.Kind)

	return 0
}

// prepareUse returns the register holding the value of s, loading it into pref if needed.
func (g *CodeGen) prepareUse(s *ir.Symbol, pref arm.Reg) arm.Reg {
	switch {
	case s.Kind == ir.KindRegister:
		return g.register(s.ValueLow)
	case s.IsMemory():
		g.loadMemory(pref, s)
		return pref
	case s.Kind == ir.KindConstant:
		g.loadConstant(pref, s.ValueLow, false)
		return pref
	}

	fault("unexpected use symbol: %v", s.Kind)

	return 0
}

// commit finishes a definition started by prepareDef.
func (g *CodeGen) commit(s *ir.Symbol, r arm.Reg) {
	switch {
	case s.Kind == ir.KindRegister:
		must(r == g.register(s.ValueLow), "register symbol %d defined in %v", s.ValueLow, r)
	case s.IsMemory():
		g.storeMemory(s, r)
	default:
		fault("unexpected definition symbol: %v", s.Kind)
	}
}

func (g *CodeGen) loadMemory(r arm.Reg, s *ir.Symbol) {
	switch s.Kind {
	case ir.KindRelative:
		g.a.Ldr(r, g.abi.base, g.relative(s, 0))
	case ir.KindTemporary:
		g.a.Ldr(r, arm.SP, g.temporary(s, 0))
	default:
		fault("unexpected memory symbol: %v", s.Kind)
	}
}

func (g *CodeGen) storeMemory(s *ir.Symbol, r arm.Reg) {
	switch s.Kind {
	case ir.KindRelative:
		g.a.Str(r, g.abi.base, g.relative(s, 0))
	case ir.KindTemporary:
		g.a.Str(r, arm.SP, g.temporary(s, 0))
	default:
		fault("unexpected memory symbol: %v", s.Kind)
	}
}

// loadMemory64 loads the 32-bit half of a 64-bit memory symbol at byte offset half (0 or 4).
func (g *CodeGen) loadMemory64(r arm.Reg, s *ir.Symbol, half uint32) {
	switch s.Kind {
	case ir.KindRelative64:
		g.a.Ldr(r, g.abi.base, g.relative(s, half))
	case ir.KindTemporary64:
		g.a.Ldr(r, arm.SP, g.temporary(s, half))
	default:
		fault("unexpected memory64 symbol: %v", s.Kind)
	}
}

func (g *CodeGen) storeMemory64(s *ir.Symbol, r arm.Reg, half uint32) {
	switch s.Kind {
	case ir.KindRelative64:
		g.a.Str(r, g.abi.base, g.relative(s, half))
	case ir.KindTemporary64:
		g.a.Str(r, arm.SP, g.temporary(s, half))
	default:
		fault("unexpected memory64 symbol: %v", s.Kind)
	}
}

// loadMemory128Address puts the address of a 128-bit memory symbol into r.
func (g *CodeGen) loadMemory128Address(r arm.Reg, s *ir.Symbol) {
	switch s.Kind {
	case ir.KindRelative128:
		must(s.ValueLow&3 == 0, "unaligned relative offset: %d", s.ValueLow)
		g.addConstant(r, g.abi.base, s.ValueLow, r)
	case ir.KindTemporary128:
		g.addConstant(r, arm.SP, s.StackLocation+g.stackLevel, r)
	default:
		fault("unexpected memory128 symbol: %v", s.Kind)
	}
}

func (g *CodeGen) loadRelative(r arm.Reg, s *ir.Symbol) {
	must(s.Kind == ir.KindRelative, "relative expected: %v", s.Kind)

	g.a.Ldr(r, g.abi.base, g.relative(s, 0))
}

func (g *CodeGen) storeTemporary(s *ir.Symbol, r arm.Reg) {
	must(s.Kind == ir.KindTemporary, "temporary expected: %v", s.Kind)

	g.a.Str(r, arm.SP, g.temporary(s, 0))
}

func (g *CodeGen) loadRelReference(r arm.Reg, s *ir.Symbol) {
	must(s.Kind == ir.KindRelReference, "relative reference expected: %v", s.Kind)

	g.a.Ldr(r, g.abi.base, g.relative(s, 0))
}

func (g *CodeGen) loadTmpReference(r arm.Reg, s *ir.Symbol) {
	must(s.Kind == ir.KindTmpReference, "temporary reference expected: %v", s.Kind)

	g.a.Ldr(r, arm.SP, g.temporary(s, 0))
}

func (g *CodeGen) storeTmpReference(s *ir.Symbol, r arm.Reg) {
	must(s.Kind == ir.KindTmpReference, "temporary reference expected: %v", s.Kind)

	g.a.Str(r, arm.SP, g.temporary(s, 0))
}

// relative is the base register offset of a frame slot.
func (g *CodeGen) relative(s *ir.Symbol, off uint32) arm.LdrAddress {
	must(s.ValueLow&3 == 0, "unaligned relative offset: %d", s.ValueLow)

	return g.ldrAddress(s.ValueLow + off)
}

// temporary is the stack pointer offset of a stack slot at the current stack level.
func (g *CodeGen) temporary(s *ir.Symbol, off uint32) arm.LdrAddress {
	return g.ldrAddress(s.StackLocation + g.stackLevel + off)
}

func (g *CodeGen) ldrAddress(off uint32) arm.LdrAddress {
	must(off < 1<<12, "memory offset out of range: %d", off)

	return arm.MakeImmediateLdrAddress(off)
}

// aluShift makes the shifter operand for shifting by s.
func (g *CodeGen) aluShift(t arm.Shift, s *ir.Symbol, pref arm.Reg) arm.AluLdrShift {
	switch {
	case s.Kind == ir.KindRegister:
		return arm.MakeVariableShift(t, g.register(s.ValueLow))
	case s.IsMemory():
		g.loadMemory(pref, s)
		return arm.MakeVariableShift(t, pref)
	case s.Kind == ir.KindConstant:
		n := uint8(s.ValueLow & 31)
		if n == 0 {
			// LSR/ASR #0 encode a shift by 32
			t = arm.LSL
		}

		return arm.MakeConstantShift(t, n)
	}

	fault("unexpected shift amount symbol: %v", s.Kind)

	return arm.AluLdrShift{}
}
