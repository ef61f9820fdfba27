package back

import "github.com/slowlang/armjit/compiler/asm/arm"

type abi struct {
	// registers maps allocator register index to the physical register.
	registers [6]arm.Reg
	params    [4]arm.Reg

	base        arm.Reg // holds the context pointer for the whole function
	callAddress arm.Reg
}

var aapcs = abi{
	registers:   [6]arm.Reg{arm.R4, arm.R5, arm.R6, arm.R7, arm.R8, arm.R10},
	params:      [4]arm.Reg{arm.R0, arm.R1, arm.R2, arm.R3},
	base:        arm.R11,
	callAddress: arm.R4,
}

func (g *CodeGen) register(i uint32) arm.Reg {
	must(int(i) < len(g.abi.registers), "register index out of range: %d", i)

	return g.abi.registers[i]
}
