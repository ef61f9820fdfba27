package ir

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Spaces uint64

	// PosError points at the byte where a statement failed to parse.
	PosError struct {
		Line int
		Col  int
		Err  error
	}
)

var (
	SpaceTab = NewSpaces(' ', '\t')
	SpaceAll = NewSpaces(' ', '\t', '\r', '\n')
)

var (
	opByName   = map[string]Op{}
	condByName = map[string]Cond{}
)

func init() {
	for op, n := range opNames {
		if n != "" {
			opByName[n] = Op(op)
		}
	}

	for c, n := range condNames {
		if n != "" {
			condByName[n] = Cond(c)
		}
	}
}

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && b[i] < 64 && s&(1<<b[i]) != 0 {
		i++
	}

	return
}

func ParseFile(ctx context.Context, name string) ([]Statement, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Parse(text)
}

// Parse reads statements in text form, one per line.
// Empty lines and // comments are skipped.
func Parse(text []byte) (l []Statement, err error) {
	for lnum, line := range bytes.Split(text, []byte("\n")) {
		if p := bytes.Index(line, []byte("//")); p >= 0 {
			line = line[:p]
		}

		i := SpaceAll.Skip(line, 0)
		if i == len(line) {
			continue
		}

		x, end, err := ParseStatement(line, i)
		if err != nil {
			return nil, PosError{Line: lnum + 1, Col: end + 1, Err: err}
		}

		end = SpaceAll.Skip(line, end)
		if end != len(line) {
			return nil, PosError{Line: lnum + 1, Col: end + 1, Err: errors.New("unexpected text: %q", line[end:])}
		}

		l = append(l, x)
	}

	return l, nil
}

func ParseStatement(b []byte, st int) (x Statement, i int, err error) {
	i = SpaceTab.Skip(b, st)

	w, i := word(b, i)

	name, cond, _ := strings.Cut(w, ".")

	op, ok := opByName[name]
	if !ok {
		return x, st, errors.New("unknown op: %q", name)
	}

	x.Op = op

	if cond != "" {
		x.Cond, ok = condByName[cond]
		if !ok {
			return x, i, errors.New("unknown condition: %q", cond)
		}
	}

	if op == OpLabel || op == OpJmp {
		j := SpaceTab.Skip(b, i)

		if j < len(b) && b[j] >= '0' && b[j] <= '9' {
			w, end := word(b, j)

			v, err := strconv.ParseUint(w, 0, 32)
			if err != nil {
				return x, j, errors.Wrap(err, "block id")
			}

			x.JmpBlock = uint32(v)

			return x, end, nil
		}
	}

	var ops [3]*Symbol

	for n := 0; n < len(ops); n++ {
		i = SpaceTab.Skip(b, i)

		if i == len(b) || b[i] == '-' {
			break
		}

		if n != 0 {
			if b[i] != ',' {
				return x, i, errors.New("comma expected")
			}

			i = SpaceTab.Skip(b, i+1)
		}

		vst := i

		ops[n], i, err = ParseSymbol(b, i)
		if err != nil {
			return x, vst, errors.Wrap(err, "operand %d", n)
		}
	}

	x.Dst, x.Src1, x.Src2 = ops[0], ops[1], ops[2]

	i = SpaceTab.Skip(b, i)

	if i+1 < len(b) && b[i] == '-' && b[i+1] == '>' {
		i = SpaceTab.Skip(b, i+2)

		w, j := word(b, i)

		v, err := strconv.ParseUint(w, 0, 32)
		if err != nil {
			return x, i, errors.Wrap(err, "block id")
		}

		x.JmpBlock = uint32(v)
		i = j
	}

	return x, i, nil
}

func ParseSymbol(b []byte, st int) (s *Symbol, i int, err error) {
	w, i := word(b, st)
	if w == "" {
		return nil, st, errors.New("symbol expected")
	}

	if w == "_" {
		return nil, i, nil
	}

	if w == "ctx" {
		return Context(), i, nil
	}

	if w[0] == '#' {
		w = w[1:]

		if v, ok := strings.CutPrefix(w, "64:"); ok {
			x, err := parseValue(v, 64)
			if err != nil {
				return nil, st, err
			}

			return Constant64(x), i, nil
		}

		x, err := parseValue(w, 32)
		if err != nil {
			return nil, st, err
		}

		return Constant(uint32(x)), i, nil
	}

	pref, num, ok := strings.Cut(w, ":")
	if !ok {
		p := 0
		for p < len(w) && (w[p] < '0' || w[p] > '9') {
			p++
		}

		pref, num = w[:p], w[p:]
	}

	v, err := strconv.ParseUint(num, 0, 32)
	if err != nil {
		return nil, st, errors.Wrap(err, "symbol %q", w)
	}

	x := uint32(v)

	switch pref {
	case "r":
		s = Register(int(x))
	case "t":
		s = Temporary(x)
	case "t64":
		s = Temporary64(x)
	case "t128":
		s = Temporary128(x)
	case "m":
		s = Relative(x)
	case "m64":
		s = Relative64(x)
	case "m128":
		s = Relative128(x)
	case "rref":
		s = RelReference(x)
	case "tref":
		s = TmpReference(x)
	default:
		return nil, st, errors.New("unknown symbol: %q", w)
	}

	return s, i, nil
}

func FormatStatement(x Statement) string {
	var b []byte

	b = append(b, x.Op.String()...)

	if x.Cond != CondNone {
		b = append(b, '.')
		b = append(b, x.Cond.String()...)
	}

	ops := []*Symbol{x.Dst, x.Src1, x.Src2}

	for len(ops) != 0 && ops[len(ops)-1] == nil {
		ops = ops[:len(ops)-1]
	}

	for j, s := range ops {
		if j == 0 {
			b = append(b, ' ')
		} else {
			b = append(b, ", "...)
		}

		b = append(b, FormatSymbol(s)...)
	}

	if x.Op == OpLabel || x.Op == OpJmp || x.Op == OpCondJmp {
		b = fmt.Appendf(b, " -> %d", x.JmpBlock)
	}

	return string(b)
}

func FormatSymbol(s *Symbol) string {
	if s == nil {
		return "_"
	}

	switch s.Kind {
	case KindRegister:
		return fmt.Sprintf("r%d", s.ValueLow)
	case KindTemporary:
		return fmt.Sprintf("t%d", s.StackLocation)
	case KindTemporary64:
		return fmt.Sprintf("t64:%d", s.StackLocation)
	case KindTemporary128:
		return fmt.Sprintf("t128:%d", s.StackLocation)
	case KindRelative:
		return fmt.Sprintf("m%d", s.ValueLow)
	case KindRelative64:
		return fmt.Sprintf("m64:%d", s.ValueLow)
	case KindRelative128:
		return fmt.Sprintf("m128:%d", s.ValueLow)
	case KindRelReference:
		return fmt.Sprintf("rref:%d", s.ValueLow)
	case KindTmpReference:
		return fmt.Sprintf("tref:%d", s.StackLocation)
	case KindConstant:
		return fmt.Sprintf("#0x%x", s.ValueLow)
	case KindConstant64:
		return fmt.Sprintf("#64:0x%x", s.Value64())
	case KindContext:
		return "ctx"
	default:
		return s.Kind.String()
	}
}

// Format prints statements in the form Parse reads.
func Format(l []Statement) []byte {
	var b []byte

	for _, x := range l {
		b = append(b, FormatStatement(x)...)
		b = append(b, '\n')
	}

	return b
}

func (e PosError) Error() string {
	return fmt.Sprintf("%d:%d: %v", e.Line, e.Col, e.Err)
}

func (e PosError) Unwrap() error { return e.Err }

func word(b []byte, st int) (string, int) {
	i := st

	for i < len(b) && b[i] != ',' && b[i] != ' ' && b[i] != '\t' && b[i] != '\r' && !(b[i] == '-' && i+1 < len(b) && b[i+1] == '>') {
		i++
	}

	return string(b[st:i]), i
}

func parseValue(s string, bits int) (uint64, error) {
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, bits)
		if err != nil {
			return 0, errors.Wrap(err, "constant")
		}

		return uint64(v), nil
	}

	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, errors.Wrap(err, "constant")
	}

	return v, nil
}
