package memory

import (
	"errors"
	"testing"
)

func TestArena_AllocAligned(t *testing.T) {
	arena, err := NewArena(0x1003, 0x100)
	if err != nil {
		t.Fatal(err)
	}

	start, _ := arena.Bounds()
	if start != 0x1010 {
		t.Fatalf("expected aligned start 0x1010 - got %s", start)
	}

	a, err := arena.Alloc(5)
	if err != nil {
		t.Fatal(err)
	}

	b, err := arena.Alloc(17)
	if err != nil {
		t.Fatal(err)
	}

	if a.Addr != 0x1010 || a.Capacity != 16 || a.Size != 5 {
		t.Fatalf("unexpected first block: %+v", a)
	}

	if b.Addr != 0x1020 || b.Capacity != 32 {
		t.Fatalf("unexpected second block: %+v", b)
	}
}

func TestArena_FreeCoalesces(t *testing.T) {
	arena, err := NewArena(0x2000, 64)
	if err != nil {
		t.Fatal(err)
	}

	var blocks []Block
	for i := 0; i < 4; i++ {
		b, err := arena.Alloc(16)
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, b)
	}

	_, err = arena.Alloc(1)
	if !errors.Is(err, ErrOutOfArena) {
		t.Fatalf("expected ErrOutOfArena - got %v", err)
	}

	for _, i := range []int{1, 0, 3, 2} {
		err := arena.Free(blocks[i].Addr)
		if err != nil {
			t.Fatal(err)
		}
	}

	if arena.Live() != 0 {
		t.Fatalf("expected no live blocks - got %d", arena.Live())
	}

	big, err := arena.Alloc(64)
	if err != nil {
		t.Fatalf("expected the freed blocks to coalesce - %s", err)
	}

	if big.Addr != 0x2000 {
		t.Fatalf("expected 0x2000 - got %s", big.Addr)
	}
}

func TestArena_DoubleFree(t *testing.T) {
	arena, err := NewArena(0x3000, 64)
	if err != nil {
		t.Fatal(err)
	}

	b, err := arena.Alloc(8)
	if err != nil {
		t.Fatal(err)
	}

	err = arena.Free(b.Addr)
	if err != nil {
		t.Fatal(err)
	}

	err = arena.Free(b.Addr)
	if !errors.Is(err, ErrDoubleFree) {
		t.Fatalf("expected ErrDoubleFree - got %v", err)
	}
}
