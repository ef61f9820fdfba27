package back

import (
	"fmt"

	"tlog.app/go/loc"
)

// Fault is an internal invariant violation found while lowering.
// It means the IR or the selection table is broken; the pass is abandoned.
type Fault struct {
	Msg string
	PC  loc.PC
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s (at %v)", f.Msg, f.PC)
}

func fault(format string, args ...any) {
	panic(&Fault{
		Msg: fmt.Sprintf(format, args...),
		PC:  loc.Caller(1),
	})
}

func must(ok bool, format string, args ...any) {
	if ok {
		return
	}

	panic(&Fault{
		Msg: "assertion failed: " + fmt.Sprintf(format, args...),
		PC:  loc.Caller(1),
	})
}
