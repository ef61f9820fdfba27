package compiler

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/armjit/compiler/ir"
	"github.com/slowlang/armjit/compiler/jitmem"
	"github.com/slowlang/armjit/compiler/objfile"
	"github.com/slowlang/armjit/compiler/platform"
)

type (
	Config struct {
		Target    platform.Target
		FrameSize uint32
		Listing   bool
	}

	// Object is one lowered function with everything needed to link it.
	Object struct {
		Target platform.Target

		Code  []byte
		Lines []string

		File *objfile.File
	}
)

func CompileFile(ctx context.Context, name string, cfg Config) (obj *Object, err error) {
	stmts, err := ir.ParseFile(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", name)
	}

	return Compile(ctx, stmts, cfg)
}

func Compile(ctx context.Context, stmts []ir.Statement, cfg Config) (obj *Object, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "target", cfg.Target.String(), "statements", len(stmts))
	defer tr.Finish("err", &err)

	b, err := platform.New(cfg.Target)
	if err != nil {
		return nil, errors.Wrap(err, "backend")
	}

	f := objfile.New()

	b.RegisterExternalSymbols(f)
	b.SetExternalSymbolReferencedHandler(f.ExternalSymbolReferenced)
	b.SetListing(cfg.Listing)

	err = b.Lower(ctx, stmts, cfg.FrameSize)
	if err != nil {
		f.Truncate(0)

		return nil, errors.Wrap(err, "lower")
	}

	obj = &Object{
		Target: cfg.Target,
		Code:   append([]byte{}, b.Code()...),
		Lines:  b.Lines(),
		File:   f,
	}

	tr.Printw("compiled", "size", len(obj.Code), "relocations", len(f.Relocations()))

	return obj, nil
}

// Link returns a copy of the code with relocations resolved.
func (o *Object) Link(resolve objfile.Resolver) ([]byte, error) {
	code := append([]byte{}, o.Code...)

	err := o.File.Link(code, resolve)
	if err != nil {
		return nil, errors.Wrap(err, "link")
	}

	return code, nil
}

// Place links the object and copies it into sealed executable memory.
// The caller owns the returned block.
func (o *Object) Place(ctx context.Context) (b *jitmem.Block, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "place", "size", len(o.Code))
	defer tr.Finish("err", &err)

	code, err := o.Link(nil)
	if err != nil {
		return nil, err
	}

	blk, err := jitmem.Alloc(len(code))
	if err != nil {
		return nil, errors.Wrap(err, "alloc")
	}

	err = blk.Write(code)
	if err == nil {
		err = blk.Seal()
	}
	if err != nil {
		_ = blk.Close()

		return nil, errors.Wrap(err, "place")
	}

	b = blk

	tr.Printw("placed", "addr", b.Addr())

	return b, nil
}
