package back

import "reflect"

type helper struct {
	name string
	fn   any
}

var (
	helperDivUnsigned = helper{"_CodeGen_Arm_div_unsigned", divUnsigned}
	helperDivSigned   = helper{"_CodeGen_Arm_div_signed", divSigned}
	helperModUnsigned = helper{"_CodeGen_Arm_mod_unsigned", modUnsigned}
	helperModSigned   = helper{"_CodeGen_Arm_mod_signed", modSigned}

	helpers = []helper{helperDivUnsigned, helperDivSigned, helperModUnsigned, helperModSigned}
)

// Division by zero is the helper's business: a Go runtime panic here.

func divUnsigned(a, b uint32) uint32 { return a / b }

func divSigned(a, b int32) int32 { return a / b }

func modUnsigned(a, b uint32) uint32 { return a % b }

func modSigned(a, b int32) int32 { return a % b }

// addr is the helper's entry point truncated to the target address size.
// On a 64-bit host the value only names the helper for relocation matching.
func (h helper) addr() uint32 {
	return uint32(h.entry())
}

func (h helper) entry() uintptr {
	return reflect.ValueOf(h.fn).Pointer()
}

// RegisterExternalSymbols exposes the divide and modulo helpers under their link names.
func (g *CodeGen) RegisterExternalSymbols(r ExternalSymbolRegistry) {
	for _, h := range helpers {
		r.AddExternalSymbol(h.name, h.entry())
	}
}
