// Package back lowers a function's IR statements into ARMv7 A32 machine code.
//
// Instruction selection is table driven: every opcode has an ordered list of
// operand patterns, and the first one matching the statement picks the emitter.
// Declaration order is the priority.
package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

type (
	CodeGen struct {
		a   *arm.Assembler
		abi *abi

		matchers map[ir.Op][]matcher

		// per function state
		labels     map[uint32]arm.Label
		params     []paramEmitter
		stackLevel uint32
		cur        int

		externalSymbolReferenced func(value uint32, offset int)
	}

	// ExternalSymbolRegistry is the object file side of helper routine linking.
	ExternalSymbolRegistry interface {
		AddExternalSymbol(name string, addr uintptr)
	}
)

func New(a *arm.Assembler) *CodeGen {
	g := &CodeGen{
		a:      a,
		abi:    &aapcs,
		labels: map[uint32]arm.Label{},
	}

	g.matchers = buildMatchers(g.generalMatchers(), g.wideMatchers())

	return g
}

func (g *CodeGen) Assembler() *arm.Assembler { return g.a }

// SetExternalSymbolReferencedHandler sets the callback notified about every
// relocatable constant load with the raw value and the offset of the MOVW/MOVT pair.
func (g *CodeGen) SetExternalSymbolReferencedHandler(h func(value uint32, offset int)) {
	g.externalSymbolReferenced = h
}

func (g *CodeGen) AvailableRegisterCount() int { return len(g.abi.registers) }

func (g *CodeGen) AvailableMdRegisterCount() int { return 0 }

func (g *CodeGen) AddressSize() int { return 4 }

func (g *CodeGen) CanHold128BitsReturnValueInRegisters() bool { return false }

// Lower emits a complete function: prolog, one lowering per statement, epilog.
// Labels are resolved and cleared before it returns.
//
// On failure nothing of the function is left in the assembler.
func (g *CodeGen) Lower(ctx context.Context, stmts []ir.Statement, frameSize uint32) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "lower function", "statements", len(stmts), "frame_size", frameSize)
	defer tr.Finish("err", &err)

	if len(g.params) != 0 || len(g.labels) != 0 || g.stackLevel != 0 {
		return errors.New("lowering state is not clean: params %d, labels %d, stack level %d", len(g.params), len(g.labels), g.stackLevel)
	}

	start := g.a.Len()
	g.cur = -1

	defer func() {
		p := recover()
		if p == nil {
			return
		}

		f, ok := p.(*Fault)
		if !ok {
			panic(p)
		}

		g.a.Truncate(start)
		g.a.ClearLabels()
		g.reset()

		if g.cur >= 0 {
			err = errors.Wrap(f, "statement %d: %v", g.cur, stmts[g.cur])
		} else {
			err = errors.Wrap(f, "lower")
		}
	}()

	if tr.If("dump_stmts") {
		for i, x := range stmts {
			tr.Printw("statement", "i", i, "st", x)
		}
	}

	saved := g.savedRegisters(registerUsage(stmts))

	tr.V("frame").Printw("saved registers", "regs", saved, "frame_size", frameSize)

	g.emitProlog(frameSize, saved)

	for i := range stmts {
		st := &stmts[i]
		g.cur = i

		m := g.match(st)

		tr.V("emit").Printw("emit", "i", i, "st", *st, "rule", m.name, "pos", g.a.Len())

		m.emit(st)
	}

	g.cur = -1

	must(len(g.params) == 0, "%d parameters not consumed by a call", len(g.params))
	must(g.stackLevel == 0, "stack level %d at function end", g.stackLevel)

	g.emitEpilog(frameSize, saved)

	if err := g.a.ResolveLabelReferences(); err != nil {
		fault("resolve labels: %v", err)
	}

	g.a.ClearLabels()
	g.reset()

	tr.Printw("function lowered", "size", g.a.Len()-start)

	return nil
}

func (g *CodeGen) reset() {
	clear(g.labels)
	g.params = g.params[:0]
	g.stackLevel = 0
}
