package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

type reloc struct {
	value  uint32
	offset int
}

func newCodeGen() (*CodeGen, *arm.Assembler, *[]reloc) {
	a := arm.New()
	a.Listing = true

	var relocs []reloc

	g := New(a)
	g.SetExternalSymbolReferencedHandler(func(v uint32, off int) {
		relocs = append(relocs, reloc{v, off})
	})

	return g, a, &relocs
}

func lower(t *testing.T, frame uint32, src string) []string {
	t.Helper()

	g, a, _ := newCodeGen()

	lowerWith(t, g, frame, src)

	return a.Lines()
}

func lowerWith(t *testing.T, g *CodeGen, frame uint32, src string) {
	t.Helper()

	stmts, err := ir.Parse([]byte(src))
	require.NoError(t, err)

	err = g.Lower(context.Background(), stmts, frame)
	require.NoError(t, err)
}

// body strips prolog and epilog of a function with an encodable frame size.
func body(t *testing.T, frame uint32, src string) []string {
	t.Helper()

	l := lower(t, frame, src)

	n := 2
	if frame != 0 {
		n = 3
	}

	require.GreaterOrEqual(t, len(l), 2*n)

	return l[n : len(l)-n]
}

func TestPrologEpilog(t *testing.T) {
	l := lower(t, 16, "mov r0, r5")

	assert.Equal(t, []string{
		"STMDB\tSP!, {R4, R10, R11, LR}",
		"SUB\tSP, SP, #16",
		"MOV\tR11, R0",
		"MOV\tR4, R10",
		"ADD\tSP, SP, #16",
		"LDMIA\tSP!, {R4, R10, R11, LR}",
		"BX\tLR",
	}, l)
}

func TestPrologLargeFrame(t *testing.T) {
	l := lower(t, 0x1004, "nop")

	assert.Equal(t, []string{
		"STMDB\tSP!, {R4, R11, LR}",
		"MOVW\tR12, #4100",
		"SUB\tSP, SP, R12",
		"MOV\tR11, R0",
		"MOVW\tR12, #4100",
		"ADD\tSP, SP, R12",
		"LDMIA\tSP!, {R4, R11, LR}",
		"BX\tLR",
	}, l)
}

func TestMov(t *testing.T) {
	assert.Equal(t, []string{
		"MOV\tR4, R5",
		"LDR\tR4, [R11, #8]",
		"LDR\tR5, [SP, #4]",
		"MOV\tR6, #255",
		"MVN\tR6, #0",
		"MOVW\tR6, #4660",
		"MOVW\tR6, #22136",
		"MOVT\tR6, #4660",
		"STR\tR4, [R11, #12]",
		"LDR\tR0, [R11, #16]",
		"STR\tR0, [SP, #0]",
		"MOV\tR0, #1",
		"STR\tR0, [R11, #20]",
	}, body(t, 8, `
		mov r0, r1
		mov r0, m8
		mov r1, t4
		mov r2, #255
		mov r2, #0xffffffff
		mov r2, #0x1234
		mov r2, #0x12345678
		mov m12, r0
		mov t0, m16
		mov m20, #1
	`))
}

func TestAluImmediateTiers(t *testing.T) {
	assert.Equal(t, []string{
		"SUB\tR4, R4, #1",
		"SUB\tR4, R4, #1",
		"ADD\tR4, R4, #1",
		"BIC\tR4, R4, #255",
		"MOVW\tR2, #22136",
		"MOVT\tR2, #4660",
		"ORR\tR4, R4, R2",
		"EOR\tR4, R4, #1020",
	}, body(t, 0, `
		sub r0, r0, #1
		add r0, r0, #-1
		sub r0, r0, #0xffffffff
		and r0, r0, #0xffffff00
		or r0, r0, #0x12345678
		xor r0, r0, #0x3fc
	`))
}

func TestAluNoNegatedForm(t *testing.T) {
	// or has neither negated nor complemented immediate forms
	assert.Equal(t, []string{
		"MVN\tR2, #0",
		"ORR\tR4, R4, R2",
	}, body(t, 0, "or r0, r0, #-1"))
}

func TestAluMemory(t *testing.T) {
	assert.Equal(t, []string{
		"LDR\tR1, [R11, #4]",
		"LDR\tR2, [SP, #0]",
		"ADD\tR0, R1, R2",
		"STR\tR0, [R11, #8]",
		"LDR\tR1, [R11, #4]",
		"ADD\tR0, R1, #3",
		"STR\tR0, [SP, #4]",
	}, body(t, 8, `
		add m8, m4, t0
		add t4, m4, #3
	`))
}

func TestShift(t *testing.T) {
	assert.Equal(t, []string{
		"MOV\tR4, R5, LSR R6",
		"LDR\tR2, [R11, #0]",
		"MOV\tR4, R5, ASR R2",
		"MOV\tR4, R5, LSL #3",
		"MOV\tR4, R5",
		"MOV\tR4, R5, ASR #1",
	}, body(t, 0, `
		srl r0, r1, r2
		sra r0, r1, m0
		sll r0, r1, #3
		srl r0, r1, #0
		sra r0, r1, #33
	`))
}

func TestCmpMaterializesWithoutBranches(t *testing.T) {
	for _, tc := range []struct {
		cond    string
		no, yes string
	}{
		{"eq", "NE", "EQ"},
		{"ne", "EQ", "NE"},
		{"lt", "GE", "LT"},
		{"gt", "LE", "GT"},
		{"bl", "CS", "CC"},
		{"ab", "LS", "HI"},
		{"le", "GT", "LE"},
		{"ge", "LT", "GE"},
		{"be", "HI", "LS"},
		{"ae", "CC", "CS"},
	} {
		t.Run(tc.cond, func(t *testing.T) {
			g, a, _ := newCodeGen()
			lowerWith(t, g, 0, "cmp."+tc.cond+" r0, r1, r2")

			l := a.Lines()
			assert.Equal(t, []string{
				"CMP\tR5, R6",
				"MOV" + tc.no + "\tR4, #0",
				"MOV" + tc.yes + "\tR4, #1",
			}, l[2:len(l)-2])

			code := a.Bytes()

			var predicated int

			for off := 0; off < len(code); off += 4 {
				w := arm.Word(code, off)

				assert.NotEqual(t, uint32(0x0A000000), w&0x0E000000, "branch at %d", off)

				if w>>28 != uint32(arm.AL) {
					predicated++
				}
			}

			assert.Equal(t, 2, predicated)
		})
	}
}

func TestCmpConstant(t *testing.T) {
	assert.Equal(t, []string{
		"CMP\tR5, #10",
		"MOVNE\tR0, #0",
		"MOVEQ\tR0, #1",
		"STR\tR0, [SP, #0]",
		"CMN\tR5, #1",
		"MOVGE\tR4, #0",
		"MOVLT\tR4, #1",
		"MOVW\tR2, #4097",
		"CMP\tR5, R2",
		"MOVLS\tR4, #0",
		"MOVHI\tR4, #1",
	}, body(t, 8, `
		cmp.eq t0, r1, #10
		cmp.lt r0, r1, #-1
		cmp.ab r0, r1, #0x1001
	`))
}

func TestNot(t *testing.T) {
	assert.Equal(t, []string{
		"MVN\tR4, R5",
		"MVN\tR1, R5",
		"STR\tR1, [R11, #0]",
		"LDR\tR0, [SP, #0]",
		"MVN\tR1, R0",
		"STR\tR1, [R11, #4]",
	}, body(t, 8, `
		not r0, r1
		not m0, r1
		not m4, t0
	`))
}

func TestForwardLabel(t *testing.T) {
	g, a, _ := newCodeGen()

	lowerWith(t, g, 0, `
		jmp -> 7
		mov r0, #1
		mov r0, #2
		label -> 7
		condjmp.ne _, r0, #0 -> 7
	`)

	assert.Equal(t, []string{
		"STMDB\tSP!, {R4, R11, LR}",
		"MOV\tR11, R0",
		"B\tL0",
		"MOV\tR4, #1",
		"MOV\tR4, #2",
		"L0:",
		"CMP\tR4, #0",
		"BNE\tL0",
		"LDMIA\tSP!, {R4, R11, LR}",
		"BX\tLR",
	}, a.Lines())

	code := a.Bytes()

	fwd := arm.Word(code, 8)
	assert.Equal(t, uint32(0xEA000001), fwd, "B +1 word past pc+8")

	back := arm.Word(code, 24)
	assert.Equal(t, uint32(0x1AFFFFFD), back, "BNE 3 words back from pc+8")

	assert.Empty(t, g.labels)
}

func TestCondJmp(t *testing.T) {
	assert.Equal(t, []string{
		"LDR\tR1, [R11, #0]",
		"CMP\tR1, R5",
		"BLE\tL0",
		"CMN\tR4, #16",
		"BGT\tL1",
		"L0:",
		"L1:",
	}, body(t, 0, `
		condjmp.le _, m0, r1 -> 1
		condjmp.gt _, r0, #-16 -> 2
		label -> 1
		label -> 2
	`))
}

func TestUnmarkedLabel(t *testing.T) {
	g, a, _ := newCodeGen()

	stmts, err := ir.Parse([]byte("jmp -> 3"))
	require.NoError(t, err)

	err = g.Lower(context.Background(), stmts, 0)
	require.Error(t, err)

	assert.Equal(t, 0, a.Len())
	assert.Empty(t, g.labels)
}

func TestMul(t *testing.T) {
	assert.Equal(t, []string{
		"LDR\tR3, [R11, #4]",
		"UMULL\tR0, R1, R4, R3",
		"STR\tR0, [SP, #8]",
		"STR\tR1, [SP, #12]",
		"MOV\tR2, #3",
		"SMULL\tR0, R1, R2, R5",
		"STR\tR0, [SP, #0]",
		"STR\tR1, [SP, #4]",
	}, body(t, 16, `
		mul t64:8, r0, m4
		muls t64:0, #3, r1
	`))
}

func TestDivByZeroCallsHelper(t *testing.T) {
	g, a, relocs := newCodeGen()

	lowerWith(t, g, 16, "div t64:0, r0, #0")

	l := a.Lines()
	l = l[3 : len(l)-3]

	assert.Equal(t, []string{
		"MOV\tR0, R4",
		"MOV\tR1, #0",
		"STMDB\tSP!, {R0, R1}",
		l[3], l[4], // call address
		"MOV\tLR, PC",
		"MOV\tPC, R4",
		"STR\tR0, [SP, #8]",
		"LDMIA\tSP!, {R0, R1}",
		l[9], l[10],
		"MOV\tLR, PC",
		"MOV\tPC, R4",
		"STR\tR0, [SP, #4]",
	}, l)

	require.Len(t, *relocs, 2)
	assert.Equal(t, helperDivUnsigned.addr(), (*relocs)[0].value)
	assert.Equal(t, helperModUnsigned.addr(), (*relocs)[1].value)

	assert.Equal(t, uint32(0), g.stackLevel)
}

func TestDivSignedMemory(t *testing.T) {
	g, a, relocs := newCodeGen()

	lowerWith(t, g, 8, "divs t64:0, m12, #7")

	l := a.Lines()

	assert.Equal(t, "LDR\tR0, [R11, #12]", l[3])
	assert.Equal(t, "MOV\tR1, #7", l[4])

	require.Len(t, *relocs, 2)
	assert.Equal(t, helperDivSigned.addr(), (*relocs)[0].value)
	assert.Equal(t, helperModSigned.addr(), (*relocs)[1].value)
}

func TestStackLevelAdjustsTemporaries(t *testing.T) {
	g, _, _ := newCodeGen()

	g.stackLevel = 8

	addr := g.temporary(ir.Temporary(4), 4)
	assert.Equal(t, uint16(16), addr.Offset)
}

func TestReferences(t *testing.T) {
	assert.Equal(t, []string{
		"LDR\tR0, [R11, #16]",
		"ADD\tR0, R0, R5",
		"STR\tR0, [SP, #0]",
		"LDR\tR0, [R11, #16]",
		"ADD\tR0, R0, #64",
		"STR\tR0, [SP, #4]",
		"LDR\tR0, [SP, #0]",
		"LDR\tR4, [R0, #0]",
		"LDR\tR0, [SP, #4]",
		"STR\tR4, [R0, #0]",
		"LDR\tR0, [SP, #4]",
		"LDR\tR1, [R11, #20]",
		"STR\tR1, [R0, #0]",
		"LDR\tR0, [SP, #0]",
		"MOV\tR1, #5",
		"STR\tR1, [R0, #0]",
		"LDR\tR0, [SP, #0]",
		"LDR\tR1, [R0, #0]",
		"STR\tR1, [R11, #24]",
	}, body(t, 8, `
		addref tref:0, rref:16, r1
		addref tref:4, rref:16, #64
		loadfromref r0, tref:0
		storeatref _, tref:4, r0
		storeatref _, tref:4, m20
		storeatref _, tref:0, #5
		loadfromref m24, tref:0
	`))
}
