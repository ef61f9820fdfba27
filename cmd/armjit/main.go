package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/xyproto/env/v2"
	"golang.org/x/arch/arm/armasm"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/armjit/compiler"
	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/back"
	"github.com/slowlang/armjit/compiler/platform"
)

func main() {
	host := platform.Detect()

	lowerCmd := &cli.Command{
		Name:        "lower",
		Description: "lower IR text files into ARM machine code",
		Action:      lowerAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("arch", env.Str("ARMJIT_ARCH", "arm"), "target architecture"),
			cli.NewFlag("os", env.Str("ARMJIT_OS", host.OS), "target operating system"),
			cli.NewFlag("frame", env.Int("ARMJIT_FRAME", 0), "stack frame size in bytes"),
			cli.NewFlag("hex", false, "print code as hex"),
			cli.NewFlag("disasm", false, "print decoded instructions"),
			cli.NewFlag("place", false, "link and place code into executable memory"),
		},
	}

	immCmd := &cli.Command{
		Name:        "imm",
		Description: "show how constants encode as ALU immediates",
		Action:      immAct,
		Args:        cli.Args{},
	}

	targetsCmd := &cli.Command{
		Name:        "targets",
		Description: "list supported architectures",
		Action:      targetsAct,
	}

	app := &cli.Command{
		Name:        "armjit",
		Description: "armjit lowers JIT IR into ARMv7 machine code",
		Commands: []*cli.Command{
			lowerCmd,
			immCmd,
			targetsCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func lowerAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	t, err := platform.Parse(c.String("os"), c.String("arch"))
	if err != nil {
		return errors.Wrap(err, "target")
	}

	frame := c.Int("frame")
	if frame < 0 {
		return errors.New("negative frame size: %d", frame)
	}

	cfg := compiler.Config{
		Target:    t,
		FrameSize: uint32(frame),
		Listing:   true,
	}

	for _, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, a, cfg)
		if err != nil {
			return errors.Wrap(err, "lower %v", a)
		}

		err = printObject(c, obj)
		if err != nil {
			return errors.Wrap(err, "print %v", a)
		}

		if !c.Bool("place") {
			continue
		}

		b, err := obj.Place(ctx)
		if err != nil {
			return errors.Wrap(err, "place %v", a)
		}

		fmt.Printf("placed %d bytes at %#x\n", len(obj.Code), b.Addr())

		err = b.Close()
		if err != nil {
			return errors.Wrap(err, "release %v", a)
		}
	}

	return nil
}

func printObject(c *cli.Command, obj *compiler.Object) error {
	switch {
	case c.Bool("hex"):
		fmt.Printf("%s", hex.Dump(obj.Code))
	case c.Bool("disasm"):
		for off := 0; off+4 <= len(obj.Code); off += 4 {
			inst, err := armasm.Decode(obj.Code[off:], armasm.ModeARM)
			if err != nil {
				fmt.Printf("%6x:  %08x  ?\n", off, arm.Word(obj.Code, off))
				continue
			}

			fmt.Printf("%6x:  %08x  %s\n", off, arm.Word(obj.Code, off), armasm.GNUSyntax(inst))
		}
	default:
		for _, l := range obj.Lines {
			fmt.Printf("\t%s\n", l)
		}
	}

	for _, r := range obj.File.Relocations() {
		fmt.Printf("reloc %6x  %#010x  %s\n", r.Offset, r.Value, r.Symbol)
	}

	return nil
}

func immAct(c *cli.Command) (err error) {
	for _, a := range c.Args {
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil || v < -1<<31 || v >= 1<<32 {
			return errors.New("bad constant: %q", a)
		}

		fmt.Printf("%-12s %s\n", a, immTier(uint32(v)))
	}

	return nil
}

// immTier names the cheapest way an ALU op can take x.
func immTier(x uint32) string {
	for _, q := range []struct {
		name string
		v    uint32
	}{
		{"imm", x},
		{"neg", -x},
		{"not", ^x},
	} {
		if imm, rot, ok := back.TryAluImmediate(q.v); ok {
			return fmt.Sprintf("%s %#x ror %d", q.name, imm, 2*int(rot))
		}
	}

	return "register (MOVW/MOVT)"
}

func targetsAct(c *cli.Command) error {
	host := platform.Detect()

	for _, a := range platform.Supported() {
		fmt.Printf("%s\n", a)
	}

	fmt.Printf("host: %v\n", host)

	return nil
}
