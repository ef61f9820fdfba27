package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/ir"
)

var callTail = []string{
	"MOVW\tR4, #4096",
	"MOVT\tR4, #0",
	"MOV\tLR, PC",
	"MOV\tPC, R4",
}

func TestParamCommitOrder(t *testing.T) {
	assert.Equal(t, append([]string{
		"MOV\tR0, R6",
		"MOV\tR1, R5",
		"MOV\tR2, R4",
	}, callTail...), body(t, 0, `
		param _, r0
		param _, r1
		param _, r2
		call _, #0x1000, #3
	`))
}

func TestParam64Alignment(t *testing.T) {
	// the register is committed first, the 64-bit value skips slot 1
	assert.Equal(t, append([]string{
		"MOV\tR0, R4",
		"MOV\tR2, #2",
		"MOV\tR3, #1",
	}, callTail...), body(t, 0, `
		param _, #64:0x100000002
		param _, r0
		call _, #0x1000, #2
	`))

	assert.Equal(t, append([]string{
		"MOV\tR0, #2",
		"MOV\tR1, #1",
		"MOV\tR2, R4",
	}, callTail...), body(t, 0, `
		param _, r0
		param _, #64:0x100000002
		call _, #0x1000, #2
	`))
}

func TestParamKinds(t *testing.T) {
	assert.Equal(t, append([]string{
		"MOV\tR0, R11",
		"LDR\tR1, [SP, #4]",
		"LDR\tR2, [R11, #8]",
		"LDR\tR3, [R11, #12]",
	}, callTail...), body(t, 8, `
		param _, m64:8
		param _, t4
		param _, ctx
		call _, #0x1000, #3
	`))

	assert.Equal(t, append([]string{
		"ADD\tR0, SP, #16",
		"ADD\tR1, R11, #32",
		"MVN\tR2, #0",
	}, callTail...), body(t, 32, `
		param _, #-1
		param _, m128:32
		param_ret _, t128:16
		call _, #0x1000, #3
	`))
}

func TestCallRelocation(t *testing.T) {
	g, a, relocs := newCodeGen()

	lowerWith(t, g, 0, `
		call _, #0x12345678, #0
		retval r1
		retval t64:0
	`)

	require.Len(t, *relocs, 1)

	r := (*relocs)[0]
	assert.Equal(t, uint32(0x12345678), r.value)
	assert.Equal(t, uint32(0xE3054678), arm.Word(a.Bytes(), r.offset), "MOVW R4, #0x5678")
	assert.Equal(t, uint32(0xE3414234), arm.Word(a.Bytes(), r.offset+4), "MOVT R4, #0x1234")

	l := a.Lines()
	assert.Equal(t, []string{
		"MOV\tR5, R0",
		"STR\tR0, [SP, #0]",
		"STR\tR1, [SP, #4]",
	}, l[6:9])
}

func TestRetValTemporary(t *testing.T) {
	assert.Equal(t, append(callTail,
		"STR\tR0, [SP, #4]",
	), body(t, 8, `
		call _, #0x1000, #0
		retval t4
	`))
}

func TestTooManyParams(t *testing.T) {
	g, a, _ := newCodeGen()

	stmts, err := ir.Parse([]byte(`
		param _, #1
		param _, #2
		param _, #3
		param _, #4
		param _, #5
		call _, #0x1000, #5
	`))
	require.NoError(t, err)

	err = g.Lower(context.Background(), stmts, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many call arguments")

	assert.Equal(t, 0, a.Len())
	assert.Empty(t, g.params)
}

func TestUnconsumedParams(t *testing.T) {
	g, a, _ := newCodeGen()

	stmts, err := ir.Parse([]byte("param _, r0"))
	require.NoError(t, err)

	err = g.Lower(context.Background(), stmts, 0)
	require.Error(t, err)

	assert.Equal(t, 0, a.Len())
	assert.Empty(t, g.params)

	// the instance is usable again
	lowerWith(t, g, 0, "nop")
	assert.Equal(t, 4*4, a.Len())
}
