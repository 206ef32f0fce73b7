package resource

import (
	"encoding/binary"
	"errors"
	"fmt"

	"gitlab.com/stephen-fox/gmpatch/bstruct"
	"gitlab.com/stephen-fox/gmpatch/memory"
)

var (
	// ErrTableNotFound means a table could not be located or its
	// layout does not hold together.
	ErrTableNotFound = errors.New("pointer table not found")

	// ErrTableEmpty means a table was located but holds no entries.
	ErrTableEmpty = errors.New("pointer table is empty")
)

// ChunkHeader is the IFF chunk header found at a table anchor.
type ChunkHeader struct {
	Tag  [4]byte
	Size uint32
}

// ReadChunkHeader reads the chunk header at addr.
func ReadChunkHeader(space memory.AddressSpace, addr memory.Addr) (ChunkHeader, error) {
	var header ChunkHeader

	size, err := bstruct.Size(header)
	if err != nil {
		return header, err
	}

	raw, err := space.ReadAt(addr, size)
	if err != nil {
		return header, fmt.Errorf("failed to read chunk header at %s - %w", addr, err)
	}

	err = bstruct.BytesToStruct(raw, binary.LittleEndian, &header)
	if err != nil {
		return header, fmt.Errorf("failed to decode chunk header at %s - %w", addr, err)
	}

	return header, nil
}

// Slot is one resolved slot of a pointer table.
type Slot struct {
	// Slot is the address of the 32-bit slot.
	Slot memory.Addr

	// Value is the relative value stored in the slot.
	Value uint32

	// Address is the absolute address the slot refers to.
	Address memory.Addr
}

// Table is a resolved pointer table.
type Table struct {
	// Anchor is the address the table was resolved from.
	Anchor memory.Addr

	// Correction is added to a slot's value to produce an absolute
	// address. It is derived once from the first slot and shared by
	// every slot of the table.
	Correction uint32

	Slots []Slot
}

// OffsetCorrection computes a table's relative-to-absolute correction
// from its first slot. The runtime stores addresses relative to the
// end of the slot array, hence the count term.
func OffsetCorrection(firstSlot memory.Addr, firstValue uint32, count int) uint32 {
	return uint32(firstSlot) - firstValue + uint32(count)*memory.WordSize
}

// ResolveFixedTable resolves a table whose entry count is stored
// at anchor+layout.CountOffset. An empty table is returned along
// with ErrTableEmpty.
func ResolveFixedTable(space memory.AddressSpace, anchor memory.Addr, layout TableLayout) (Table, error) {
	countAddr := anchor + memory.Addr(layout.CountOffset)

	count, err := memory.ReadUint32(space, countAddr)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read entry count at %s (%v) - %w",
			countAddr, err, ErrTableNotFound)
	}

	if count > MaxTableEntries {
		return Table{}, fmt.Errorf("entry count %d at %s exceeds %d - %w",
			count, countAddr, MaxTableEntries, ErrTableNotFound)
	}

	table := Table{Anchor: anchor}

	if count == 0 {
		return table, ErrTableEmpty
	}

	firstSlot := anchor + memory.Addr(layout.FirstSlotOffset)

	raw, err := space.ReadAt(firstSlot, int(count)*memory.WordSize)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read %d slots at %s (%v) - %w",
			count, firstSlot, err, ErrTableNotFound)
	}

	values := make([]uint32, count)
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(raw[i*memory.WordSize:])
	}

	table.Correction = OffsetCorrection(firstSlot, values[0], len(values))
	table.Slots = makeSlots(firstSlot, values, table.Correction)

	return table, nil
}

// ResolveSentinelTable resolves a table with no stored count. Slots
// are walked from anchor+layout.FirstSlotOffset while their value is
// greater than threshold. An empty table is returned along with
// ErrTableEmpty, which is also the outcome when the first real value
// happens to be at or below threshold.
//
// ErrTableNotFound is returned when the walk runs into unmapped memory
// or exceeds MaxSentinelSlots.
func ResolveSentinelTable(space memory.AddressSpace, anchor memory.Addr, layout TableLayout, threshold uint32) (Table, error) {
	firstSlot := anchor + memory.Addr(layout.FirstSlotOffset)

	var values []uint32
	for {
		if len(values) >= MaxSentinelSlots {
			return Table{}, fmt.Errorf("no sentinel within %d slots of %s - %w",
				MaxSentinelSlots, firstSlot, ErrTableNotFound)
		}

		slot := firstSlot + memory.Addr(len(values)*memory.WordSize)

		value, err := memory.ReadUint32(space, slot)
		if err != nil {
			return Table{}, fmt.Errorf("failed to read slot %d at %s (%v) - %w",
				len(values), slot, err, ErrTableNotFound)
		}

		if value <= threshold {
			break
		}

		values = append(values, value)
	}

	table := Table{Anchor: anchor}

	if len(values) == 0 {
		return table, ErrTableEmpty
	}

	table.Correction = OffsetCorrection(firstSlot, values[0], len(values))
	table.Slots = makeSlots(firstSlot, values, table.Correction)

	return table, nil
}

func makeSlots(firstSlot memory.Addr, values []uint32, correction uint32) []Slot {
	slots := make([]Slot, len(values))
	for i, value := range values {
		slots[i] = Slot{
			Slot:    firstSlot + memory.Addr(i*memory.WordSize),
			Value:   value,
			Address: memory.Addr(value + correction),
		}
	}

	return slots
}
