package resource

import (
	"encoding/binary"
	"errors"
	"fmt"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

// ExternalTable is a table found by ScanExternalTables.
type ExternalTable struct {
	// Group is the zero-based index of the marked region in discovery
	// order. Marked regions whose table cannot be resolved still
	// take a number.
	Group int

	// Region is the region holding the table.
	Region memory.Region

	Table
}

// ScanExternalTables checks every region wider than
// layout.MinRegionSize for layout.Marker and resolves the fixed-count
// table of each region that carries it. Regions without the marker
// are skipped silently. Regions with the marker but without a usable
// table are reported to diags.
func ScanExternalTables(space memory.AddressSpace, regions []memory.Region, layout ExternalLayout, diags *Diags) []ExternalTable {
	var tables []ExternalTable
	var group int

	for _, region := range regions {
		if region.Size() <= layout.MinRegionSize {
			continue
		}

		markerAddr := region.Start + memory.Addr(layout.MarkerOffset)

		marker, err := space.ReadAt(markerAddr, len(layout.Marker))
		if err != nil || string(marker) != layout.Marker {
			continue
		}

		current := group
		group++

		table, err := ResolveFixedTable(space, region.Start, layout.Table)
		switch {
		case err == nil:
		case errors.Is(err, ErrTableEmpty):
			diags.Addf(region.Start, DiagEmpty, "%s marked region holds no entries", layout.Marker)
			continue
		default:
			diags.Addf(region.Start, DiagUnresolved, "%s marked region - %s", layout.Marker, err)
			continue
		}

		tables = append(tables, ExternalTable{
			Group:  current,
			Region: region,
			Table:  table,
		})
	}

	return tables
}

// SecondaryMatch describes a secondary pointer found by
// LocateSecondaryPointers.
type SecondaryMatch struct {
	// Entry is the index into the entries slice.
	Entry int

	// At is where the pointer was found.
	At memory.Addr

	// PayloadPointer is true when the word refers to the entry's
	// payload (its address + 4) rather than its length prefix.
	PayloadPointer bool
}

// LocateSecondaryPointers scans the regions matching window for
// 32-bit words equal to an entry's address or to its address + 4.
//
// A word equal to the address becomes the entry's SecondarySlot.
// A word equal to the address + 4 becomes its SecondarySlot2 and
// the word after it becomes its SecondarySizeSlot. When an address
// is found more than once, the last match wins.
//
// Entries are updated in place. Every match is returned in scan order.
func LocateSecondaryPointers(space memory.AddressSpace, entries []Entry, regions []memory.Region, window HeapWindow, diags *Diags) []SecondaryMatch {
	byAddr := make(map[uint32][]int)
	byPayload := make(map[uint32][]int)
	for i, entry := range entries {
		if entry.Address == 0 {
			continue
		}
		byAddr[uint32(entry.Address)] = append(byAddr[uint32(entry.Address)], i)
		byPayload[uint32(entry.Address)+4] = append(byPayload[uint32(entry.Address)+4], i)
	}

	var matches []SecondaryMatch

	for _, region := range regions {
		if !window.Match(region) {
			continue
		}

		data, err := space.ReadAt(region.Start, int(region.Size()))
		if err != nil {
			diags.Addf(region.Start, DiagUnreadable, "failed to read heap region %s - %s", region, err)
			continue
		}

		for off := 0; off+memory.WordSize <= len(data); off += memory.WordSize {
			word := binary.LittleEndian.Uint32(data[off:])
			at := region.Start + memory.Addr(off)

			for _, i := range byAddr[word] {
				entries[i].SecondarySlot = at
				matches = append(matches, SecondaryMatch{Entry: i, At: at})
			}

			for _, i := range byPayload[word] {
				entries[i].SecondarySlot2 = at
				entries[i].SecondarySizeSlot = at + memory.WordSize
				matches = append(matches, SecondaryMatch{Entry: i, At: at, PayloadPointer: true})
			}
		}
	}

	return matches
}

func (o SecondaryMatch) String() string {
	if o.PayloadPointer {
		return fmt.Sprintf("entry %d payload pointer at %s", o.Entry, o.At)
	}
	return fmt.Sprintf("entry %d pointer at %s", o.Entry, o.At)
}
