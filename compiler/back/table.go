package back

import (
	"fmt"

	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

type (
	pattern int

	emitter func(st *ir.Statement)

	matcher struct {
		op   ir.Op
		dst  pattern
		src1 pattern
		src2 pattern

		name string
		emit emitter
	}
)

const (
	matchNil pattern = iota
	matchAny
	matchVariable
	matchMemory
	matchMemory64
	matchMemory128
	matchRegister
	matchTemporary
	matchTemporary64
	matchTemporary128
	matchRelative
	matchConstant
	matchConstant64
	matchContext
	matchRelRef
	matchTmpRef
)

func (p pattern) matches(s *ir.Symbol) bool {
	if p == matchNil {
		return s == nil
	}

	if s == nil {
		return false
	}

	switch p {
	case matchAny:
		return s.Kind == ir.KindRegister || s.IsMemory() || s.Kind == ir.KindConstant
	case matchVariable:
		return s.Kind == ir.KindRegister || s.IsMemory()
	case matchMemory:
		return s.IsMemory()
	case matchMemory64:
		return s.IsMemory64()
	case matchMemory128:
		return s.IsMemory128()
	case matchRegister:
		return s.Kind == ir.KindRegister
	case matchTemporary:
		return s.Kind == ir.KindTemporary
	case matchTemporary64:
		return s.Kind == ir.KindTemporary64
	case matchTemporary128:
		return s.Kind == ir.KindTemporary128
	case matchRelative:
		return s.Kind == ir.KindRelative
	case matchConstant:
		return s.Kind == ir.KindConstant
	case matchConstant64:
		return s.Kind == ir.KindConstant64
	case matchContext:
		return s.Kind == ir.KindContext
	case matchRelRef:
		return s.Kind == ir.KindRelReference
	case matchTmpRef:
		return s.Kind == ir.KindTmpReference
	default:
		panic(p)
	}
}

func (m *matcher) matches(st *ir.Statement) bool {
	return m.dst.matches(st.Dst) && m.src1.matches(st.Src1) && m.src2.matches(st.Src2)
}

func (g *CodeGen) match(st *ir.Statement) *matcher {
	l := g.matchers[st.Op]

	for i := range l {
		if l[i].matches(st) {
			return &l[i]
		}
	}

	fault("no lowering rule for %v", *st)

	return nil
}

// buildMatchers merges partitions keeping declaration order.
// Partitions must not declare the same op and operand patterns.
func buildMatchers(parts ...[]matcher) map[ir.Op][]matcher {
	type key struct {
		op             ir.Op
		dst, src1, src2 pattern
	}

	r := map[ir.Op][]matcher{}
	owner := map[key]int{}

	for pi, part := range parts {
		for _, m := range part {
			k := key{m.op, m.dst, m.src1, m.src2}

			if p, ok := owner[k]; ok && p != pi {
				panic(fmt.Sprintf("matcher %v declared in partitions %d and %d", m.name, p, pi))
			}

			owner[k] = pi
			r[m.op] = append(r[m.op], m)
		}
	}

	return r
}

func rule(op ir.Op, dst, src1, src2 pattern, name string, emit emitter) matcher {
	return matcher{op: op, dst: dst, src1: src1, src2: src2, name: name, emit: emit}
}

func (g *CodeGen) aluMatchers(op ir.Op, alu aluOp) []matcher {
	return []matcher{
		rule(op, matchAny, matchAny, matchConstant, alu.name+"_any_any_cst", g.aluGenericAnyCst(alu)),
		rule(op, matchAny, matchAny, matchAny, alu.name+"_any_any_any", g.aluGenericAnyAny(alu)),
	}
}

func (g *CodeGen) generalMatchers() []matcher {
	var l []matcher

	add := func(m ...matcher) { l = append(l, m...) }

	add(
		rule(ir.OpLabel, matchNil, matchNil, matchNil, "label", g.markLabel),

		rule(ir.OpNop, matchNil, matchNil, matchNil, "nop", g.emitNop),

		rule(ir.OpMov, matchRegister, matchRegister, matchNil, "mov_reg_reg", g.emitMovRegReg),
		rule(ir.OpMov, matchRegister, matchMemory, matchNil, "mov_reg_mem", g.emitMovRegMem),
		rule(ir.OpMov, matchRegister, matchConstant, matchNil, "mov_reg_cst", g.emitMovRegCst),
		rule(ir.OpMov, matchMemory, matchRegister, matchNil, "mov_mem_reg", g.emitMovMemReg),
		rule(ir.OpMov, matchMemory, matchMemory, matchNil, "mov_mem_mem", g.emitMovMemMem),
		rule(ir.OpMov, matchMemory, matchConstant, matchNil, "mov_mem_cst", g.emitMovMemCst),
	)

	a := g.a

	add(g.aluMatchers(ir.OpAdd, aluOp{name: "add", reg: a.Add, imm: a.AddImm, immNeg: a.SubImm})...)
	add(g.aluMatchers(ir.OpSub, aluOp{name: "sub", reg: a.Sub, imm: a.SubImm, immNeg: a.AddImm})...)
	add(g.aluMatchers(ir.OpAnd, aluOp{name: "and", reg: a.And, imm: a.AndImm, immNot: a.BicImm})...)
	add(g.aluMatchers(ir.OpOr, aluOp{name: "or", reg: a.Orr, imm: a.OrrImm})...)
	add(g.aluMatchers(ir.OpXor, aluOp{name: "xor", reg: a.Eor, imm: a.EorImm})...)

	add(
		rule(ir.OpSrl, matchAny, matchAny, matchAny, "srl", g.shiftGeneric(arm.LSR)),
		rule(ir.OpSra, matchAny, matchAny, matchAny, "sra", g.shiftGeneric(arm.ASR)),
		rule(ir.OpSll, matchAny, matchAny, matchAny, "sll", g.shiftGeneric(arm.LSL)),

		rule(ir.OpParam, matchNil, matchContext, matchNil, "param_ctx", g.emitParamCtx),
		rule(ir.OpParam, matchNil, matchRegister, matchNil, "param_reg", g.emitParamReg),
		rule(ir.OpParam, matchNil, matchMemory, matchNil, "param_mem", g.emitParamMem),
		rule(ir.OpParam, matchNil, matchConstant, matchNil, "param_cst", g.emitParamCst),
		rule(ir.OpParam, matchNil, matchMemory64, matchNil, "param_mem64", g.emitParamMem64),
		rule(ir.OpParam, matchNil, matchConstant64, matchNil, "param_cst64", g.emitParamCst64),
		rule(ir.OpParam, matchNil, matchMemory128, matchNil, "param_mem128", g.emitParamMem128),

		rule(ir.OpParamRet, matchNil, matchTemporary128, matchNil, "param_ret_tmp128", g.emitParamRetTmp128),

		rule(ir.OpCall, matchNil, matchConstant, matchConstant, "call", g.emitCall),

		rule(ir.OpRetVal, matchRegister, matchNil, matchNil, "retval_reg", g.emitRetValReg),
		rule(ir.OpRetVal, matchTemporary, matchNil, matchNil, "retval_tmp", g.emitRetValTmp),
		rule(ir.OpRetVal, matchMemory64, matchNil, matchNil, "retval_mem64", g.emitRetValMem64),

		rule(ir.OpJmp, matchNil, matchNil, matchNil, "jmp", g.emitJmp),

		rule(ir.OpCondJmp, matchNil, matchVariable, matchConstant, "condjmp_var_cst", g.emitCondJmpVarCst),
		rule(ir.OpCondJmp, matchNil, matchVariable, matchVariable, "condjmp_var_var", g.emitCondJmpVarVar),

		rule(ir.OpCmp, matchAny, matchAny, matchConstant, "cmp_any_any_cst", g.emitCmpAnyAnyCst),
		rule(ir.OpCmp, matchAny, matchAny, matchAny, "cmp_any_any_any", g.emitCmpAnyAnyAny),

		rule(ir.OpNot, matchRegister, matchRegister, matchNil, "not_reg_reg", g.emitNotRegReg),
		rule(ir.OpNot, matchMemory, matchRegister, matchNil, "not_mem_reg", g.emitNotMemReg),
		rule(ir.OpNot, matchMemory, matchMemory, matchNil, "not_mem_mem", g.emitNotMemMem),

		rule(ir.OpDiv, matchTemporary64, matchRegister, matchRegister, "div_tmp64_reg_reg", g.divTmp64(false)),
		rule(ir.OpDiv, matchTemporary64, matchRegister, matchConstant, "div_tmp64_reg_cst", g.divTmp64(false)),
		rule(ir.OpDiv, matchTemporary64, matchMemory, matchConstant, "div_tmp64_mem_cst", g.divTmp64(false)),

		rule(ir.OpDivs, matchTemporary64, matchRegister, matchRegister, "divs_tmp64_reg_reg", g.divTmp64(true)),
		rule(ir.OpDivs, matchTemporary64, matchRegister, matchConstant, "divs_tmp64_reg_cst", g.divTmp64(true)),
		rule(ir.OpDivs, matchTemporary64, matchMemory, matchConstant, "divs_tmp64_mem_cst", g.divTmp64(true)),

		rule(ir.OpMul, matchTemporary64, matchAny, matchAny, "mul_tmp64_any_any", g.mulTmp64(false)),
		rule(ir.OpMuls, matchTemporary64, matchAny, matchAny, "muls_tmp64_any_any", g.mulTmp64(true)),

		rule(ir.OpAddRef, matchTmpRef, matchRelRef, matchRegister, "addref_tmp_rel_reg", g.emitAddRefTmpRelReg),
		rule(ir.OpAddRef, matchTmpRef, matchRelRef, matchConstant, "addref_tmp_rel_cst", g.emitAddRefTmpRelCst),

		rule(ir.OpLoadFromRef, matchRegister, matchTmpRef, matchNil, "loadfromref_reg_tmp", g.emitLoadFromRefRegTmp),
		rule(ir.OpLoadFromRef, matchMemory, matchTmpRef, matchNil, "loadfromref_mem_tmp", g.emitLoadFromRefMemTmp),

		rule(ir.OpStoreAtRef, matchNil, matchTmpRef, matchRegister, "storeatref_tmp_reg", g.emitStoreAtRefTmpReg),
		rule(ir.OpStoreAtRef, matchNil, matchTmpRef, matchRelative, "storeatref_tmp_rel", g.emitStoreAtRefTmpRel),
		rule(ir.OpStoreAtRef, matchNil, matchTmpRef, matchConstant, "storeatref_tmp_cst", g.emitStoreAtRefTmpCst),
	)

	return l
}

func (g *CodeGen) wideMatchers() []matcher {
	a := g.a

	return []matcher{
		rule(ir.OpMov64, matchMemory64, matchMemory64, matchNil, "mov64_mem_mem", g.emitMov64MemMem),
		rule(ir.OpMov64, matchMemory64, matchConstant64, matchNil, "mov64_mem_cst", g.emitMov64MemCst),

		rule(ir.OpAdd64, matchMemory64, matchMemory64, matchMemory64, "add64_mem_mem_mem", g.alu64(a.Adds, a.Adc)),
		rule(ir.OpAdd64, matchMemory64, matchMemory64, matchConstant64, "add64_mem_mem_cst", g.alu64(a.Adds, a.Adc)),

		rule(ir.OpSub64, matchMemory64, matchMemory64, matchMemory64, "sub64_mem_mem_mem", g.alu64(a.Subs, a.Sbc)),
		rule(ir.OpSub64, matchMemory64, matchMemory64, matchConstant64, "sub64_mem_mem_cst", g.alu64(a.Subs, a.Sbc)),

		rule(ir.OpAnd64, matchMemory64, matchMemory64, matchMemory64, "and64_mem_mem_mem", g.alu64(a.And, a.And)),
		rule(ir.OpAnd64, matchMemory64, matchMemory64, matchConstant64, "and64_mem_mem_cst", g.alu64(a.And, a.And)),
	}
}
