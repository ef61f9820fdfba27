package ir

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	Op   int
	Cond int
	Kind int

	// Symbol is one statement operand: its storage class and value.
	// Kind is fixed when the IR is built and never reinterpreted.
	Symbol struct {
		Kind Kind

		ValueLow  uint32
		ValueHigh uint32

		StackLocation uint32
	}

	// Statement is one IR operation. Absent operands are nil.
	Statement struct {
		Op Op

		Dst  *Symbol
		Src1 *Symbol
		Src2 *Symbol

		Cond     Cond
		JmpBlock uint32
	}
)

const (
	OpNop Op = iota
	OpLabel

	OpMov
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpNot

	OpSrl
	OpSra
	OpSll

	OpCmp
	OpJmp
	OpCondJmp

	OpMul
	OpMuls
	OpDiv
	OpDivs

	OpParam
	OpParamRet
	OpCall
	OpRetVal

	OpAddRef
	OpLoadFromRef
	OpStoreAtRef

	OpMov64
	OpAdd64
	OpSub64
	OpAnd64

	opMax
)

const (
	CondNone Cond = iota
	CondEQ
	CondNE
	CondLT
	CondLE
	CondGT
	CondGE
	CondBL // unsigned <
	CondBE // unsigned <=
	CondAB // unsigned >
	CondAE // unsigned >=
)

const (
	KindRegister Kind = iota
	KindTemporary
	KindTemporary64
	KindTemporary128
	KindRelative
	KindRelative64
	KindRelative128
	KindRelReference
	KindTmpReference
	KindConstant
	KindConstant64
	KindContext
)

var opNames = [...]string{
	OpNop:         "nop",
	OpLabel:       "label",
	OpMov:         "mov",
	OpAdd:         "add",
	OpSub:         "sub",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpNot:         "not",
	OpSrl:         "srl",
	OpSra:         "sra",
	OpSll:         "sll",
	OpCmp:         "cmp",
	OpJmp:         "jmp",
	OpCondJmp:     "condjmp",
	OpMul:         "mul",
	OpMuls:        "muls",
	OpDiv:         "div",
	OpDivs:        "divs",
	OpParam:       "param",
	OpParamRet:    "param_ret",
	OpCall:        "call",
	OpRetVal:      "retval",
	OpAddRef:      "addref",
	OpLoadFromRef: "loadfromref",
	OpStoreAtRef:  "storeatref",
	OpMov64:       "mov64",
	OpAdd64:       "add64",
	OpSub64:       "sub64",
	OpAnd64:       "and64",
}

var condNames = [...]string{
	CondNone: "",
	CondEQ:   "eq",
	CondNE:   "ne",
	CondLT:   "lt",
	CondLE:   "le",
	CondGT:   "gt",
	CondGE:   "ge",
	CondBL:   "bl",
	CondBE:   "be",
	CondAB:   "ab",
	CondAE:   "ae",
}

var kindNames = [...]string{
	KindRegister:     "register",
	KindTemporary:    "temporary",
	KindTemporary64:  "temporary64",
	KindTemporary128: "temporary128",
	KindRelative:     "relative",
	KindRelative64:   "relative64",
	KindRelative128:  "relative128",
	KindRelReference: "rel_reference",
	KindTmpReference: "tmp_reference",
	KindConstant:     "constant",
	KindConstant64:   "constant64",
	KindContext:      "context",
}

func Register(i int) *Symbol { return &Symbol{Kind: KindRegister, ValueLow: uint32(i)} }

func Temporary(loc uint32) *Symbol { return &Symbol{Kind: KindTemporary, StackLocation: loc} }

func Temporary64(loc uint32) *Symbol { return &Symbol{Kind: KindTemporary64, StackLocation: loc} }

func Temporary128(loc uint32) *Symbol { return &Symbol{Kind: KindTemporary128, StackLocation: loc} }

func Relative(off uint32) *Symbol { return &Symbol{Kind: KindRelative, ValueLow: off} }

func Relative64(off uint32) *Symbol { return &Symbol{Kind: KindRelative64, ValueLow: off} }

func Relative128(off uint32) *Symbol { return &Symbol{Kind: KindRelative128, ValueLow: off} }

func RelReference(off uint32) *Symbol { return &Symbol{Kind: KindRelReference, ValueLow: off} }

func TmpReference(loc uint32) *Symbol { return &Symbol{Kind: KindTmpReference, StackLocation: loc} }

func Constant(v uint32) *Symbol { return &Symbol{Kind: KindConstant, ValueLow: v} }

func Constant64(v uint64) *Symbol {
	return &Symbol{Kind: KindConstant64, ValueLow: uint32(v), ValueHigh: uint32(v >> 32)}
}

func Context() *Symbol { return &Symbol{Kind: KindContext} }

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}

	return "op(" + strconv.Itoa(int(op)) + ")"
}

func (c Cond) String() string {
	if c >= 0 && int(c) < len(condNames) {
		return condNames[c]
	}

	return "cond(" + strconv.Itoa(int(c)) + ")"
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsMemory reports whether the symbol is a 32-bit stack or frame slot.
func (s *Symbol) IsMemory() bool {
	return s.Kind == KindTemporary || s.Kind == KindRelative
}

func (s *Symbol) IsMemory64() bool {
	return s.Kind == KindTemporary64 || s.Kind == KindRelative64
}

func (s *Symbol) IsMemory128() bool {
	return s.Kind == KindTemporary128 || s.Kind == KindRelative128
}

func (s *Symbol) Value64() uint64 {
	return uint64(s.ValueHigh)<<32 | uint64(s.ValueLow)
}

func (s *Symbol) String() string { return FormatSymbol(s) }

func (x Statement) String() string { return FormatStatement(x) }

func (s *Symbol) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if s == nil {
		return e.AppendNil(b)
	}

	return e.AppendString(b, FormatSymbol(s))
}

func (x Statement) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, FormatStatement(x))
}
