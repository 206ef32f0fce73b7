package memory

import (
	"errors"
	"fmt"
	"log"
)

var (
	// ErrUnmapped is returned when an access touches an address that
	// is not backed by any mapped region.
	ErrUnmapped = errors.New("address is not mapped")

	// ErrOutOfArena is returned by an Arena when it has no free block
	// large enough to satisfy an allocation.
	ErrOutOfArena = errors.New("arena has no free block large enough")

	// ErrDoubleFree is returned when an address is freed that is not
	// the start of a live allocation.
	ErrDoubleFree = errors.New("address is not a live allocation")
)

// Addr is an absolute address in the target's address space.
type Addr uint64

// String returns the hexadecimal representation of the address.
func (o Addr) String() string {
	return fmt.Sprintf("0x%x", uint64(o))
}

// AddressSpace abstracts the mapped memory of a target process.
type AddressSpace interface {
	// ReadAt reads n bytes starting at addr.
	ReadAt(addr Addr, n int) ([]byte, error)

	// WriteAt writes p starting at addr.
	WriteAt(addr Addr, p []byte) error

	// Regions enumerates the target's currently mapped regions
	// in ascending address order.
	Regions() ([]Region, error)
}

// Block describes a block of target memory handed out by an Allocator.
type Block struct {
	// Addr is the start of the block.
	Addr Addr

	// Size is the number of bytes that were requested.
	Size int

	// Capacity is the number of bytes actually reserved, which
	// is greater than or equal to Size.
	Capacity int
}

// Allocator reserves and releases blocks of memory inside the target.
type Allocator interface {
	// Alloc reserves at least size bytes.
	Alloc(size int) (Block, error)

	// Free releases a block previously returned by Alloc.
	Free(addr Addr) error
}

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)
