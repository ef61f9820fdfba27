// Package platform recognizes the target a JIT runs on and picks its backend.
package platform

import (
	"context"
	"runtime"
	"sort"

	"github.com/samber/lo"
	"tlog.app/go/errors"

	"github.com/slowlang/armjit/compiler/asm/arm"
	"github.com/slowlang/armjit/compiler/back"
	"github.com/slowlang/armjit/compiler/ir"
)

type (
	ABI int

	Target struct {
		OS   string
		Arch string
		ABI  ABI
	}

	// Backend is what the driver needs from an architecture code generator.
	Backend interface {
		Lower(ctx context.Context, stmts []ir.Statement, frameSize uint32) error
		Code() []byte
		Lines() []string
		SetListing(on bool)
		Reset()

		SetExternalSymbolReferencedHandler(h func(value uint32, offset int))
		RegisterExternalSymbols(r back.ExternalSymbolRegistry)

		AvailableRegisterCount() int
		AvailableMdRegisterCount() int
		AddressSize() int
		CanHold128BitsReturnValueInRegisters() bool
	}

	Factory func(t Target) (Backend, error)

	armBackend struct {
		*back.CodeGen
	}
)

const (
	ABIUnknown ABI = iota
	AAPCS
	SystemV
	Win64
)

var (
	ErrUnsupportedArch     = errors.New("unsupported architecture")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

var abiNames = [...]string{
	ABIUnknown: "unknown",
	AAPCS:      "aapcs",
	SystemV:    "sysv",
	Win64:      "win64",
}

var registry = map[string]Factory{
	"arm": newARM,
}

var archAliases = map[string]string{
	"arm":     "arm",
	"armv7":   "arm",
	"armv7l":  "arm",
	"armhf":   "arm",
	"amd64":   "amd64",
	"x86_64":  "amd64",
	"x86-64":  "amd64",
	"386":     "386",
	"i386":    "386",
	"arm64":   "arm64",
	"aarch64": "arm64",
}

func (a ABI) String() string {
	if a >= 0 && int(a) < len(abiNames) {
		return abiNames[a]
	}

	return "abi(?)"
}

func (t Target) String() string {
	return t.OS + "/" + t.Arch + "/" + t.ABI.String()
}

// Detect describes the platform the process runs on.
func Detect() Target {
	t, _ := Parse(runtime.GOOS, runtime.GOARCH)

	return t
}

// Parse normalizes os and arch names and picks the calling convention.
// Arch names it doesn't know are kept as is with ABIUnknown.
// 386 has no calling convention variant and gets ABIUnknown too.
func Parse(os, arch string) (Target, error) {
	norm, ok := archAliases[arch]
	if !ok {
		return Target{OS: os, Arch: arch}, errors.Wrap(ErrUnsupportedArch, "%v", arch)
	}

	t := Target{OS: os, Arch: norm}

	switch {
	case norm == "arm":
		t.ABI = AAPCS
	case norm == "amd64" && os == "windows":
		t.ABI = Win64
	case norm == "amd64":
		t.ABI = SystemV
	case norm == "arm64":
		t.ABI = AAPCS
	}

	return t, nil
}

// New returns a backend for t.
func New(t Target) (Backend, error) {
	f, ok := registry[t.Arch]
	if !ok {
		return nil, errors.Wrap(ErrUnsupportedArch, "%v", t.Arch)
	}

	return f(t)
}

// Supported lists registered architectures.
func Supported() []string {
	l := lo.Keys(registry)
	sort.Strings(l)

	return l
}

func newARM(t Target) (Backend, error) {
	if t.ABI != AAPCS {
		return nil, errors.Wrap(ErrUnsupportedPlatform, "%v", t)
	}

	switch t.OS {
	case "linux", "android", "freebsd", "netbsd", "openbsd", "darwin", "ios", "":
	default:
		return nil, errors.Wrap(ErrUnsupportedPlatform, "%v", t)
	}

	a := arm.New()

	return armBackend{CodeGen: back.New(a)}, nil
}

func (b armBackend) Code() []byte { return b.Assembler().Bytes() }

func (b armBackend) Lines() []string { return b.Assembler().Lines() }

func (b armBackend) SetListing(on bool) { b.Assembler().Listing = on }

func (b armBackend) Reset() { b.Assembler().Reset() }
