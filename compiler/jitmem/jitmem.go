//go:build linux || darwin || freebsd

// Package jitmem places generated code into executable memory.
package jitmem

import (
	"unsafe"

	"golang.org/x/sys/unix"
	"tlog.app/go/errors"
)

// Block is an anonymous mapping. It is writable until Seal and executable after.
type Block struct {
	mem    []byte
	sealed bool
}

func Alloc(size int) (*Block, error) {
	if size <= 0 {
		return nil, errors.New("bad block size: %d", size)
	}

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrap(err, "mmap")
	}

	return &Block{mem: mem}, nil
}

// Addr is the address code placed at offset 0 runs at.
func (b *Block) Addr() uintptr {
	return uintptr(unsafe.Pointer(&b.mem[0]))
}

func (b *Block) Bytes() []byte { return b.mem }

func (b *Block) Size() int { return len(b.mem) }

// Write copies code to the start of the block.
func (b *Block) Write(code []byte) error {
	if b.sealed {
		return errors.New("block is sealed")
	}

	if len(code) > len(b.mem) {
		return errors.New("code does not fit: %d > %d", len(code), len(b.mem))
	}

	copy(b.mem, code)

	return nil
}

// Seal makes the block read-only and executable.
func (b *Block) Seal() error {
	err := unix.Mprotect(b.mem, unix.PROT_READ|unix.PROT_EXEC)
	if err != nil {
		return errors.Wrap(err, "mprotect")
	}

	b.sealed = true

	return nil
}

func (b *Block) Close() error {
	if b.mem == nil {
		return nil
	}

	err := unix.Munmap(b.mem)
	b.mem = nil

	if err != nil {
		return errors.Wrap(err, "munmap")
	}

	return nil
}
