package back

import (
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

// label returns the label of a block, creating it on first reference.
func (g *CodeGen) label(block uint32) arm.Label {
	l, ok := g.labels[block]
	if ok {
		return l
	}

	l = g.a.CreateLabel()
	g.labels[block] = l

	return l
}

func (g *CodeGen) markLabel(st *ir.Statement) {
	l := g.label(st.JmpBlock)

	_, marked := g.a.LabelPosition(l)
	must(!marked, "block %d marked twice", st.JmpBlock)

	g.a.MarkLabel(l)
}
