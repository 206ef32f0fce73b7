package memory

import (
	"fmt"
	"sort"
)

// ArenaAlign is the alignment of every block handed out by an Arena.
const ArenaAlign = 16

// NewArena creates an Arena that hands out blocks from the size bytes
// of target memory starting at start. The caller is responsible for
// picking a range that the target does not use for anything else.
func NewArena(start Addr, size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena size must be greater than zero")
	}

	alignedStart := alignUp(uint64(start), ArenaAlign)
	end := uint64(start) + uint64(size)
	if alignedStart >= end {
		return nil, fmt.Errorf("arena at %s is too small to hold an aligned block", start)
	}

	return &Arena{
		start: Addr(alignedStart),
		end:   Addr(end),
		free:  []span{{addr: Addr(alignedStart), size: end - alignedStart}},
		live:  make(map[Addr]uint64),
	}, nil
}

// Arena is a first-fit allocator over a fixed range of target memory.
// Freed blocks are coalesced with their free neighbours.
type Arena struct {
	start Addr
	end   Addr
	free  []span
	live  map[Addr]uint64
}

type span struct {
	addr Addr
	size uint64
}

// Bounds returns the range managed by the arena. End is exclusive.
func (o *Arena) Bounds() (Addr, Addr) {
	return o.start, o.end
}

// Live returns the number of blocks currently allocated.
func (o *Arena) Live() int {
	return len(o.live)
}

// Alloc reserves at least size bytes.
func (o *Arena) Alloc(size int) (Block, error) {
	if size <= 0 {
		return Block{}, fmt.Errorf("allocation size must be greater than zero")
	}

	capacity := alignUp(uint64(size), ArenaAlign)

	for i, s := range o.free {
		if s.size < capacity {
			continue
		}

		if s.size == capacity {
			o.free = append(o.free[:i], o.free[i+1:]...)
		} else {
			o.free[i] = span{addr: s.addr + Addr(capacity), size: s.size - capacity}
		}

		o.live[s.addr] = capacity

		return Block{Addr: s.addr, Size: size, Capacity: int(capacity)}, nil
	}

	return Block{}, fmt.Errorf("failed to allocate %d bytes - %w", size, ErrOutOfArena)
}

// Free releases a block previously returned by Alloc.
func (o *Arena) Free(addr Addr) error {
	capacity, hasIt := o.live[addr]
	if !hasIt {
		return fmt.Errorf("failed to free %s - %w", addr, ErrDoubleFree)
	}
	delete(o.live, addr)

	o.free = append(o.free, span{addr: addr, size: capacity})
	sort.Slice(o.free, func(i, j int) bool {
		return o.free[i].addr < o.free[j].addr
	})

	merged := o.free[:1]
	for _, s := range o.free[1:] {
		last := &merged[len(merged)-1]
		if uint64(last.addr)+last.size == uint64(s.addr) {
			last.size += s.size
			continue
		}
		merged = append(merged, s)
	}
	o.free = merged

	return nil
}

func alignUp(v uint64, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
