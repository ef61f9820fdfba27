package arm

import (
	"fmt"

	"tlog.app/go/errors"
)

type aluOp uint32

const (
	opAND aluOp = iota
	opEOR
	opSUB
	opRSB
	opADD
	opADC
	opSBC
	opRSC
	opTST
	opTEQ
	opCMP
	opCMN
	opORR
	opMOV
	opBIC
	opMVN
)

var aluNames = [...]string{"AND", "EOR", "SUB", "RSB", "ADD", "ADC", "SBC", "RSC", "TST", "TEQ", "CMP", "CMN", "ORR", "MOV", "BIC", "MVN"}

func (a *Assembler) dp(c Cond, op aluOp, s bool, rd, rn Reg, op2 uint32, args string) {
	w := uint32(c)<<28 | uint32(op)<<21 | uint32(rn)<<16 | uint32(rd)<<12 | op2
	if s {
		w |= 1 << 20
	}

	name := aluNames[op]
	if s && op != opCMP && op != opCMN && op != opTST && op != opTEQ {
		name += "S"
	}

	a.emit(w, "%s%v\t%s", name, c, args)
}

func (a *Assembler) rrr(op aluOp, s bool, rd, rn, rm Reg) {
	a.dp(AL, op, s, rd, rn, uint32(rm), fmt.Sprintf("%v, %v, %v", rd, rn, rm))
}

func (a *Assembler) rri(op aluOp, rd, rn Reg, imm ImmediateAluOperand) {
	a.dp(AL, op, false, rd, rn, imm.bits(), fmt.Sprintf("%v, %v, %v", rd, rn, imm))
}

func (a *Assembler) Add(rd, rn, rm Reg) { a.rrr(opADD, false, rd, rn, rm) }
func (a *Assembler) Adds(rd, rn, rm Reg) { a.rrr(opADD, true, rd, rn, rm) }
func (a *Assembler) Adc(rd, rn, rm Reg) { a.rrr(opADC, false, rd, rn, rm) }
func (a *Assembler) Sub(rd, rn, rm Reg) { a.rrr(opSUB, false, rd, rn, rm) }
func (a *Assembler) Subs(rd, rn, rm Reg) { a.rrr(opSUB, true, rd, rn, rm) }
func (a *Assembler) Sbc(rd, rn, rm Reg) { a.rrr(opSBC, false, rd, rn, rm) }
func (a *Assembler) And(rd, rn, rm Reg) { a.rrr(opAND, false, rd, rn, rm) }
func (a *Assembler) Orr(rd, rn, rm Reg) { a.rrr(opORR, false, rd, rn, rm) }
func (a *Assembler) Eor(rd, rn, rm Reg) { a.rrr(opEOR, false, rd, rn, rm) }

func (a *Assembler) AddImm(rd, rn Reg, imm ImmediateAluOperand) { a.rri(opADD, rd, rn, imm) }
func (a *Assembler) SubImm(rd, rn Reg, imm ImmediateAluOperand) { a.rri(opSUB, rd, rn, imm) }
func (a *Assembler) AndImm(rd, rn Reg, imm ImmediateAluOperand) { a.rri(opAND, rd, rn, imm) }
func (a *Assembler) BicImm(rd, rn Reg, imm ImmediateAluOperand) { a.rri(opBIC, rd, rn, imm) }
func (a *Assembler) OrrImm(rd, rn Reg, imm ImmediateAluOperand) { a.rri(opORR, rd, rn, imm) }
func (a *Assembler) EorImm(rd, rn Reg, imm ImmediateAluOperand) { a.rri(opEOR, rd, rn, imm) }

func (a *Assembler) Cmp(rn, rm Reg) {
	a.dp(AL, opCMP, true, 0, rn, uint32(rm), fmt.Sprintf("%v, %v", rn, rm))
}

func (a *Assembler) CmpImm(rn Reg, imm ImmediateAluOperand) {
	a.dp(AL, opCMP, true, 0, rn, imm.bits(), fmt.Sprintf("%v, %v", rn, imm))
}

func (a *Assembler) CmnImm(rn Reg, imm ImmediateAluOperand) {
	a.dp(AL, opCMN, true, 0, rn, imm.bits(), fmt.Sprintf("%v, %v", rn, imm))
}

func (a *Assembler) Mov(rd, rm Reg) {
	a.dp(AL, opMOV, false, rd, 0, uint32(rm), fmt.Sprintf("%v, %v", rd, rm))
}

func (a *Assembler) MovOp(rd Reg, op RegisterAluOperand) {
	a.dp(AL, opMOV, false, rd, 0, op.bits(), fmt.Sprintf("%v, %v", rd, op))
}

func (a *Assembler) MovImm(rd Reg, imm ImmediateAluOperand) {
	a.MovCc(AL, rd, imm)
}

func (a *Assembler) MovCc(c Cond, rd Reg, imm ImmediateAluOperand) {
	a.dp(c, opMOV, false, rd, 0, imm.bits(), fmt.Sprintf("%v, %v", rd, imm))
}

func (a *Assembler) Mvn(rd, rm Reg) {
	a.dp(AL, opMVN, false, rd, 0, uint32(rm), fmt.Sprintf("%v, %v", rd, rm))
}

func (a *Assembler) MvnImm(rd Reg, imm ImmediateAluOperand) {
	a.dp(AL, opMVN, false, rd, 0, imm.bits(), fmt.Sprintf("%v, %v", rd, imm))
}

// Movw loads a 16-bit value zero-extended.
func (a *Assembler) Movw(rd Reg, v uint16) {
	w := uint32(AL)<<28 | 0x03000000 | movImm16(v) | uint32(rd)<<12
	a.emit(w, "MOVW\t%v, #%d", rd, v)
}

// Movt replaces the upper half of rd.
func (a *Assembler) Movt(rd Reg, v uint16) {
	w := uint32(AL)<<28 | 0x03400000 | movImm16(v) | uint32(rd)<<12
	a.emit(w, "MOVT\t%v, #%d", rd, v)
}

func (a *Assembler) Ldr(rd, rn Reg, addr LdrAddress) {
	w := uint32(AL)<<28 | 0x05900000 | uint32(rn)<<16 | uint32(rd)<<12 | uint32(addr.Offset)
	a.emit(w, "LDR\t%v, [%v, #%d]", rd, rn, addr.Offset)
}

func (a *Assembler) Str(rd, rn Reg, addr LdrAddress) {
	w := uint32(AL)<<28 | 0x05800000 | uint32(rn)<<16 | uint32(rd)<<12 | uint32(addr.Offset)
	a.emit(w, "STR\t%v, [%v, #%d]", rd, rn, addr.Offset)
}

// Stmdb stores mask below rn and writes the new address back (push).
func (a *Assembler) Stmdb(rn Reg, mask uint16) {
	w := uint32(AL)<<28 | 0x09200000 | uint32(rn)<<16 | uint32(mask)
	a.emit(w, "STMDB\t%v!, %s", rn, RegList(mask))
}

// Ldmia loads mask from rn upwards and writes the new address back (pop).
func (a *Assembler) Ldmia(rn Reg, mask uint16) {
	w := uint32(AL)<<28 | 0x08B00000 | uint32(rn)<<16 | uint32(mask)
	a.emit(w, "LDMIA\t%v!, %s", rn, RegList(mask))
}

func (a *Assembler) Bx(rm Reg) {
	w := uint32(AL)<<28 | 0x012FFF10 | uint32(rm)
	a.emit(w, "BX\t%v", rm)
}

// BCc emits a conditional branch to l. The offset is filled in by ResolveLabelReferences.
func (a *Assembler) BCc(c Cond, l Label) {
	a.refs.Push(labelRef{at: len(a.b), label: l})

	w := uint32(c)<<28 | 0x0A000000
	a.emit(w, "B%v\tL%d", c, int(l))
}

func (a *Assembler) Smull(rdLo, rdHi, rn, rm Reg) {
	a.mull(0x00C00090, "SMULL", rdLo, rdHi, rn, rm)
}

func (a *Assembler) Umull(rdLo, rdHi, rn, rm Reg) {
	a.mull(0x00800090, "UMULL", rdLo, rdHi, rn, rm)
}

func (a *Assembler) mull(base uint32, name string, rdLo, rdHi, rn, rm Reg) {
	w := uint32(AL)<<28 | base | uint32(rdHi)<<16 | uint32(rdLo)<<12 | uint32(rm)<<8 | uint32(rn)
	a.emit(w, "%s\t%v, %v, %v, %v", name, rdLo, rdHi, rn, rm)
}

func movImm16(v uint16) uint32 {
	return uint32(v>>12)<<16 | uint32(v&0xfff)
}

// PatchMovwMovt rewrites the 32-bit value loaded by the MOVW/MOVT pair at off.
func PatchMovwMovt(code []byte, off int, v uint32) error {
	if off < 0 || off+8 > len(code) {
		return errors.New("patch site out of range: %d", off)
	}

	lo := Word(code, off)
	hi := Word(code, off+4)

	if lo&0x0FF00000 != 0x03000000 || hi&0x0FF00000 != 0x03400000 {
		return errors.New("no MOVW/MOVT pair at %d: %08x %08x", off, lo, hi)
	}

	const keep = 0xF000F000 // cond and Rd

	putWord(code, off, lo&keep|0x03000000|movImm16(uint16(v)))
	putWord(code, off+4, hi&keep|0x03400000|movImm16(uint16(v>>16)))

	return nil
}
