package arm

import (
	"strconv"

	"tlog.app/go/errors"
)

func (a *Assembler) CreateLabel() Label {
	l := Label(len(a.labels))
	a.labels = append(a.labels, -1)

	return l
}

// MarkLabel binds l to the current position.
func (a *Assembler) MarkLabel(l Label) {
	if a.labels[l] != -1 {
		panic("label marked twice")
	}

	a.labels[l] = len(a.b)

	if a.Listing {
		a.lines = append(a.lines, listLine{at: len(a.b), text: "L" + strconv.Itoa(int(l)) + ":"})
	}
}

// LabelPosition returns the offset l is bound to.
func (a *Assembler) LabelPosition(l Label) (int, bool) {
	pos := a.labels[l]

	return pos, pos >= 0
}

// ResolveLabelReferences patches every pending branch in stream order.
func (a *Assembler) ResolveLabelReferences() error {
	for a.refs.Len() != 0 {
		r := a.refs.Pop()

		pos := a.labels[r.label]
		if pos < 0 {
			return errors.New("label L%d referenced at %d is not marked", int(r.label), r.at)
		}

		off := (pos - (r.at + 8)) >> 2
		if off < -1<<23 || off >= 1<<23 {
			return errors.New("branch at %d out of range: %d", r.at, off)
		}

		w := Word(a.b, r.at)
		putWord(a.b, r.at, w&0xFF000000|uint32(off)&0x00FFFFFF)
	}

	return nil
}

func (a *Assembler) ClearLabels() {
	a.labels = a.labels[:0]
	a.refs.Data = a.refs.Data[:0]
}

func refsLess(d []labelRef, i, j int) bool {
	return d[i].at < d[j].at
}
