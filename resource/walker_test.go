package resource

import (
	"bytes"
	"errors"
	"testing"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

const testAnchor memory.Addr = 0x1000

func newTestSpace(t *testing.T) *memory.Simulated {
	sim := memory.NewSimulated()

	err := sim.Map(testAnchor, 0x1000, "rw-p", "data")
	if err != nil {
		t.Fatal(err)
	}

	return sim
}

func poke(t *testing.T, sim *memory.Simulated, addr memory.Addr, values ...uint32) {
	for i, v := range values {
		err := sim.PokeUint32(addr+memory.Addr(i*memory.WordSize), v)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestResolveFixedTable_SharedCorrection(t *testing.T) {
	sim := newTestSpace(t)

	values := []uint32{0x0100, 0x0180, 0x0240, 0x0400}
	poke(t, sim, testAnchor+8, uint32(len(values)))
	poke(t, sim, testAnchor+12, values...)

	table, err := ResolveFixedTable(sim, testAnchor, AudioTableLayout)
	if err != nil {
		t.Fatal(err)
	}

	if len(table.Slots) != len(values) {
		t.Fatalf("expected %d slots - got %d", len(values), len(table.Slots))
	}

	exp := OffsetCorrection(testAnchor+12, values[0], len(values))
	if table.Correction != exp {
		t.Fatalf("expected correction 0x%x - got 0x%x", exp, table.Correction)
	}

	for i, slot := range table.Slots {
		if slot.Slot != testAnchor+12+memory.Addr(i*4) {
			t.Fatalf("slot %d: unexpected slot address %s", i, slot.Slot)
		}

		if uint32(slot.Address)-slot.Value != table.Correction {
			t.Fatalf("slot %d: correction 0x%x differs from the table's 0x%x",
				i, uint32(slot.Address)-slot.Value, table.Correction)
		}
	}

	// The first entry starts right after the slot array.
	if table.Slots[0].Address != testAnchor+12+4*4 {
		t.Fatalf("expected first entry at %s - got %s", testAnchor+12+4*4, table.Slots[0].Address)
	}
}

func TestResolveFixedTable_SlotsAfterCount(t *testing.T) {
	sim := newTestSpace(t)

	layout := TableLayout{CountOffset: 0, FirstSlotOffset: 4}
	poke(t, sim, testAnchor, 2, 0x500, 0x51c)

	table, err := ResolveFixedTable(sim, testAnchor, layout)
	if err != nil {
		t.Fatal(err)
	}

	if table.Slots[0].Address != testAnchor+12 {
		t.Fatalf("expected entry 0 at %s - got %s", testAnchor+12, table.Slots[0].Address)
	}

	if table.Slots[1].Address != testAnchor+40 {
		t.Fatalf("expected entry 1 at %s - got %s", testAnchor+40, table.Slots[1].Address)
	}
}

func TestResolveFixedTable_Empty(t *testing.T) {
	sim := newTestSpace(t)

	table, err := ResolveFixedTable(sim, testAnchor, AudioTableLayout)
	if !errors.Is(err, ErrTableEmpty) {
		t.Fatalf("expected ErrTableEmpty - got %v", err)
	}

	if len(table.Slots) != 0 {
		t.Fatalf("expected no slots - got %d", len(table.Slots))
	}
}

func TestResolveFixedTable_BadCount(t *testing.T) {
	sim := newTestSpace(t)

	poke(t, sim, testAnchor+8, MaxTableEntries+1)

	_, err := ResolveFixedTable(sim, testAnchor, AudioTableLayout)
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound - got %v", err)
	}

	// Plausible count, but the slots run off the end of the mapping.
	poke(t, sim, testAnchor+8, 0x1000)

	_, err = ResolveFixedTable(sim, testAnchor, AudioTableLayout)
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound - got %v", err)
	}
}

func TestResolveFixedTable_Unmapped(t *testing.T) {
	sim := newTestSpace(t)

	_, err := ResolveFixedTable(sim, 0x9000, AudioTableLayout)
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound - got %v", err)
	}
}

func TestResolveSentinelTable(t *testing.T) {
	sim := newTestSpace(t)

	poke(t, sim, testAnchor+12, 0x200, 0x300, 0x81, SentinelThreshold, 0x900)

	table, err := ResolveSentinelTable(sim, testAnchor, StringTableLayout, SentinelThreshold)
	if err != nil {
		t.Fatal(err)
	}

	if len(table.Slots) != 3 {
		t.Fatalf("expected 3 slots - got %d", len(table.Slots))
	}

	exp := OffsetCorrection(testAnchor+12, 0x200, 3)
	if table.Correction != exp {
		t.Fatalf("expected correction 0x%x - got 0x%x", exp, table.Correction)
	}

	if table.Slots[2].Address != memory.Addr(0x81+exp) {
		t.Fatalf("unexpected address for slot 2: %s", table.Slots[2].Address)
	}
}

func TestResolveSentinelTable_FirstValueIsSentinel(t *testing.T) {
	sim := newTestSpace(t)

	poke(t, sim, testAnchor+12, 0x7f, 0x300)

	_, err := ResolveSentinelTable(sim, testAnchor, StringTableLayout, SentinelThreshold)
	if !errors.Is(err, ErrTableEmpty) {
		t.Fatalf("expected ErrTableEmpty - got %v", err)
	}
}

func TestResolveSentinelTable_NoSentinelBeforeMappingEnd(t *testing.T) {
	sim := newTestSpace(t)

	err := sim.Poke(testAnchor, bytes.Repeat([]byte{0xff}, 0x1000))
	if err != nil {
		t.Fatal(err)
	}

	_, err = ResolveSentinelTable(sim, testAnchor, StringTableLayout, SentinelThreshold)
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound - got %v", err)
	}
}

func TestResolveSentinelTable_WalkIsBounded(t *testing.T) {
	sim := memory.NewSimulated()

	const size = MaxSentinelSlots*memory.WordSize + 0x100
	sim.MapOrExit(0x100000, size, "rw-p", "")

	err := sim.Poke(0x100000, bytes.Repeat([]byte{0xff}, size))
	if err != nil {
		t.Fatal(err)
	}

	_, err = ResolveSentinelTable(sim, 0x100000, StringTableLayout, SentinelThreshold)
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound - got %v", err)
	}
}

func TestReadChunkHeader(t *testing.T) {
	sim := newTestSpace(t)

	sim.Poke(testAnchor, []byte{'A', 'U', 'D', 'O', 0x10, 0, 0, 0})

	header, err := ReadChunkHeader(sim, testAnchor)
	if err != nil {
		t.Fatal(err)
	}

	if string(header.Tag[:]) != "AUDO" || header.Size != 0x10 {
		t.Fatalf("unexpected header: %+v", header)
	}
}
