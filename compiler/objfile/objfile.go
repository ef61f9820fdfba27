// Package objfile keeps external symbols and relocations of generated code
// until it is placed and linked.
package objfile

import (
	"github.com/samber/lo"
	"tlog.app/go/errors"

	"github.com/slowlang/armjit/compiler/asm/arm"
)

type (
	Symbol struct {
		Name string
		Addr uintptr
	}

	// Relocation is a MOVW/MOVT pair at Offset loading Value.
	// Symbol names the external symbol Value was taken from, if any.
	Relocation struct {
		Offset int
		Value  uint32
		Symbol string
	}

	// Resolver returns the final value for a relocation.
	Resolver func(r Relocation) (uint32, error)

	File struct {
		symbols []Symbol
		relocs  []Relocation
	}
)

func New() *File {
	return &File{}
}

// AddExternalSymbol registers a named routine. Re-registering a name replaces its address.
func (f *File) AddExternalSymbol(name string, addr uintptr) {
	_, i, ok := lo.FindIndexOf(f.symbols, func(s Symbol) bool { return s.Name == name })
	if ok {
		f.symbols[i].Addr = addr
		return
	}

	f.symbols = append(f.symbols, Symbol{Name: name, Addr: addr})
}

func (f *File) Symbols() []Symbol { return f.symbols }

// Lookup finds a symbol by name.
func (f *File) Lookup(name string) (Symbol, bool) {
	return lo.Find(f.symbols, func(s Symbol) bool { return s.Name == name })
}

// ExternalSymbolReferenced records a relocatable constant load.
// It is meant to be installed as the code generator's relocation handler.
// Symbols are matched by their address truncated to 32 bits.
func (f *File) ExternalSymbolReferenced(value uint32, offset int) {
	r := Relocation{Offset: offset, Value: value}

	if s, ok := lo.Find(f.symbols, func(s Symbol) bool { return uint32(s.Addr) == value }); ok {
		r.Symbol = s.Name
	}

	f.relocs = append(f.relocs, r)
}

func (f *File) Relocations() []Relocation { return f.relocs }

// Truncate forgets relocations at or after offset n, along with the code they pointed into.
func (f *File) Truncate(n int) {
	f.relocs = lo.Filter(f.relocs, func(r Relocation, _ int) bool { return r.Offset < n })
}

func (f *File) Reset() {
	f.relocs = f.relocs[:0]
}

// Resolve keeps the recorded value, refreshing it from the symbol table for named relocations.
func (f *File) Resolve(r Relocation) (uint32, error) {
	if r.Symbol == "" {
		return r.Value, nil
	}

	s, ok := f.Lookup(r.Symbol)
	if !ok {
		return 0, errors.New("undefined symbol: %v", r.Symbol)
	}

	return uint32(s.Addr), nil
}

// Link patches every relocation site in code. nil resolve means f.Resolve.
func (f *File) Link(code []byte, resolve Resolver) error {
	if resolve == nil {
		resolve = f.Resolve
	}

	for _, r := range f.relocs {
		v, err := resolve(r)
		if err != nil {
			return errors.Wrap(err, "relocation at %d", r.Offset)
		}

		err = arm.PatchMovwMovt(code, r.Offset, v)
		if err != nil {
			return errors.Wrap(err, "relocation at %d", r.Offset)
		}
	}

	return nil
}
