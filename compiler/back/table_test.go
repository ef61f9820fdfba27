package back

import (
	"context"
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

func encodable(c uint32) bool {
	for r := 0; r < 32; r += 2 {
		if bits.RotateLeft32(c, r) <= 0xff {
			return true
		}
	}

	return false
}

func TestTryAluImmediateAllEncodable(t *testing.T) {
	for rot := uint8(0); rot < 16; rot++ {
		for imm := 0; imm < 256; imm++ {
			c := arm.MakeImmediateAluOperand(uint8(imm), rot).Value()

			i, r, ok := TryAluImmediate(c)
			require.True(t, ok, "%#x", c)
			assert.Equal(t, c, arm.MakeImmediateAluOperand(i, r).Value(), "%#x", c)
		}
	}
}

func TestTryAluImmediateRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	for n := 0; n < 100000; n++ {
		c := rnd.Uint32()
		if n&1 == 0 {
			c >>= uint(rnd.Intn(32))
		}

		i, r, ok := TryAluImmediate(c)
		require.Equal(t, encodable(c), ok, "%#x", c)

		if ok {
			require.Equal(t, c, arm.MakeImmediateAluOperand(i, r).Value(), "%#x", c)
		}
	}
}

func TestTryAluImmediateRejects(t *testing.T) {
	for _, c := range []uint32{0x12345678, 0xedcba988, ^uint32(0x12345678), 0x00010001, 0x101, 0x1fe00001} {
		_, _, ok := TryAluImmediate(c)
		assert.False(t, ok, "%#x", c)
	}

	imm, rot, ok := TryAluImmediate(0xff000000)
	assert.True(t, ok)
	assert.Equal(t, uint8(0xff), imm)
	assert.Equal(t, uint8(4), rot)
}

func TestDispatchFirstMatchWins(t *testing.T) {
	g, _, _ := newCodeGen()

	for _, tc := range []struct {
		src  string
		rule string
	}{
		{"add r0, r1, #5", "add_any_any_cst"},
		{"add r0, r1, r2", "add_any_any_any"},
		{"cmp.eq r0, m4, #5", "cmp_any_any_cst"},
		{"cmp.eq r0, m4, t8", "cmp_any_any_any"},
		{"condjmp.eq _, r0, #1 -> 1", "condjmp_var_cst"},
		{"mov r0, r1", "mov_reg_reg"},
		{"mov t0, r1", "mov_mem_reg"},
		{"mov m0, t4", "mov_mem_mem"},
		{"param _, t0", "param_mem"},
		{"param _, t64:0", "param_mem64"},
		{"retval t0", "retval_tmp"},
		{"retval t64:0", "retval_mem64"},
		{"mov64 m64:0, #64:5", "mov64_mem_cst"},
	} {
		l, err := ir.Parse([]byte(tc.src))
		require.NoError(t, err)

		m := g.match(&l[0])
		assert.Equal(t, tc.rule, m.name, "%v", tc.src)
	}
}

func TestNoLoweringRule(t *testing.T) {
	g, a, _ := newCodeGen()

	lowerWith(t, g, 0, "mov r0, r1")
	n := a.Len()

	for _, src := range []string{
		"add t64:0, r0, r1",
		"mov r0, rref:4",
		"div t64:0, m0, r1",
		"condjmp.eq _, #1, r0 -> 1",
	} {
		stmts, err := ir.Parse([]byte("mov r0, r1\n" + src))
		require.NoError(t, err)

		err = g.Lower(context.Background(), stmts, 0)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "no lowering rule", src)

		var f *Fault
		assert.ErrorAs(t, err, &f)

		assert.Equal(t, n, a.Len(), "nothing of the failed function is left")
	}
}

func TestInvariantFaults(t *testing.T) {
	for _, src := range []string{
		"mov r6, r0",
		"mov m2, r0",
		"label -> 1\nlabel -> 1",
		"cmp r0, r1, r2",
	} {
		g, a, _ := newCodeGen()

		stmts, err := ir.Parse([]byte(src))
		require.NoError(t, err)

		err = g.Lower(context.Background(), stmts, 0)
		assert.Error(t, err, src)
		assert.Equal(t, 0, a.Len(), src)
	}
}

func TestPartitionsDoNotOverlap(t *testing.T) {
	g, _, _ := newCodeGen()

	assert.NotPanics(t, func() { buildMatchers(g.generalMatchers(), g.wideMatchers()) })

	m := rule(ir.OpMov64, matchMemory64, matchMemory64, matchNil, "dup", g.emitNop)

	assert.Panics(t, func() { buildMatchers(g.generalMatchers(), []matcher{m}, g.wideMatchers()) })
}

func TestWide(t *testing.T) {
	assert.Equal(t, []string{
		"LDR\tR0, [R11, #8]",
		"LDR\tR1, [R11, #12]",
		"MOV\tR2, #1",
		"MOV\tR3, #0",
		"ADDS\tR0, R0, R2",
		"ADC\tR1, R1, R3",
		"STR\tR0, [R11, #0]",
		"STR\tR1, [R11, #4]",
		"LDR\tR0, [SP, #0]",
		"LDR\tR1, [SP, #4]",
		"LDR\tR2, [R11, #0]",
		"LDR\tR3, [R11, #4]",
		"SUBS\tR0, R0, R2",
		"SBC\tR1, R1, R3",
		"STR\tR0, [SP, #0]",
		"STR\tR1, [SP, #4]",
		"MOVW\tR0, #65535",
		"MOV\tR1, #0",
		"STR\tR0, [R11, #16]",
		"STR\tR1, [R11, #20]",
	}, body(t, 8, `
		add64 m64:0, m64:8, #64:1
		sub64 t64:0, t64:0, m64:0
		mov64 m64:16, #64:0xffff
	`))
}

func TestCapabilities(t *testing.T) {
	g, a, _ := newCodeGen()

	assert.Same(t, a, g.Assembler())
	assert.Equal(t, 6, g.AvailableRegisterCount())
	assert.Equal(t, 0, g.AvailableMdRegisterCount())
	assert.Equal(t, 4, g.AddressSize())
	assert.False(t, g.CanHold128BitsReturnValueInRegisters())
}

type registry map[string]uintptr

func (r registry) AddExternalSymbol(name string, addr uintptr) { r[name] = addr }

func TestRegisterExternalSymbols(t *testing.T) {
	g, _, _ := newCodeGen()

	r := registry{}
	g.RegisterExternalSymbols(r)

	assert.Len(t, r, 4)
	assert.NotZero(t, r["_CodeGen_Arm_div_unsigned"])
	assert.NotZero(t, r["_CodeGen_Arm_div_signed"])
	assert.NotZero(t, r["_CodeGen_Arm_mod_unsigned"])
	assert.NotZero(t, r["_CodeGen_Arm_mod_signed"])

	assert.Equal(t, uint32(r["_CodeGen_Arm_mod_signed"]), helperModSigned.addr())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, uint32(3), divUnsigned(10, 3))
	assert.Equal(t, int32(-3), divSigned(-10, 3))
	assert.Equal(t, uint32(1), modUnsigned(10, 3))
	assert.Equal(t, int32(-1), modSigned(-10, 3))
}

func TestReuseAcrossFunctions(t *testing.T) {
	g, a, _ := newCodeGen()

	lowerWith(t, g, 0, "jmp -> 1\nlabel -> 1")
	first := a.Len()

	lowerWith(t, g, 0, "jmp -> 1\nlabel -> 1")

	assert.Equal(t, 2*first, a.Len())
	assert.Equal(t, arm.Word(a.Bytes(), 8), arm.Word(a.Bytes(), first+8))
}

func TestMustFault(t *testing.T) {
	must(true, "not raised")

	defer func() {
		p := recover()

		f, ok := p.(*Fault)
		require.True(t, ok, "%v", p)
		assert.Equal(t, "assertion failed: slot 7", f.Msg)
	}()

	must(false, "slot %d", 7)
}
