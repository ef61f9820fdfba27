//go:build !(linux || darwin || freebsd)

package jitmem

import (
	"runtime"

	"tlog.app/go/errors"
)

type Block struct{}

func Alloc(size int) (*Block, error) {
	return nil, errors.New("executable memory is not supported on %v", runtime.GOOS)
}

func (b *Block) Addr() uintptr { return 0 }

func (b *Block) Bytes() []byte { return nil }

func (b *Block) Size() int { return 0 }

func (b *Block) Write(code []byte) error { return errors.New("not supported") }

func (b *Block) Seal() error { return errors.New("not supported") }

func (b *Block) Close() error { return nil }
