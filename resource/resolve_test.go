package resource

import (
	"testing"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

func testAnchors(t *testing.T, audio memory.Addr, strings memory.Addr) memory.Anchors {
	anchors, err := memory.NewAnchorTable("test").
		AddAnchorInBuild(AnchorAudio, audio, "test").
		AddAnchorInBuild(AnchorStrings, strings, "test").
		Select("test")
	if err != nil {
		t.Fatal(err)
	}

	return anchors
}

// A two entry fixed-count table at A with its count at A and its
// slots at A+12 and A+16. The entries live at A+20 and A+40 and
// declare payload lengths of 4 and 8.
func TestResolver_EndToEnd(t *testing.T) {
	sim := newTestSpace(t)

	const a = testAnchor

	layout := TableLayout{CountOffset: 0, FirstSlotOffset: 12}
	poke(t, sim, a, 2)
	poke(t, sim, a+12, 0x1000, 0x1000+20)
	poke(t, sim, a+20, 4)
	poke(t, sim, a+40, 8)

	resolver := NewResolver(sim, testAnchors(t, a, 0x1800))
	resolver.AudioLayout = layout
	resolver.SkipExternal = true
	resolver.SkipSecondary = true

	catalog := resolver.Resolve()

	if len(catalog.Audio) != 2 {
		t.Fatalf("expected 2 audio entries - got %d (diags: %v)", len(catalog.Audio), catalog.Diags)
	}

	if catalog.Audio[0].Address != a+20 || catalog.Audio[1].Address != a+40 {
		t.Fatalf("expected entries at %s and %s - got %s and %s",
			a+20, a+40, catalog.Audio[0].Address, catalog.Audio[1].Address)
	}

	if catalog.Audio[0].Correction != catalog.Audio[1].Correction {
		t.Fatalf("expected a shared correction - got 0x%x and 0x%x",
			catalog.Audio[0].Correction, catalog.Audio[1].Correction)
	}

	if catalog.Audio[0].OriginalSize != 4 || catalog.Audio[1].OriginalSize != 8 {
		t.Fatalf("unexpected sizes: %d %d", catalog.Audio[0].OriginalSize, catalog.Audio[1].OriginalSize)
	}

	if catalog.Audio[1].Label != "EmbeddedSound 1" {
		t.Fatalf("unexpected label %q", catalog.Audio[1].Label)
	}

	// The string anchor points at zeroed memory.
	if len(catalog.Strings) != 0 {
		t.Fatalf("expected no strings - got %d", len(catalog.Strings))
	}

	var sawEmpty bool
	for _, d := range catalog.Diags {
		if d.Kind == DiagEmpty && d.Addr == 0x1800 {
			sawEmpty = true
		}
	}

	if !sawEmpty {
		t.Fatalf("expected an empty string table diagnostic - got %v", catalog.Diags)
	}
}

func TestResolver_FullCatalog(t *testing.T) {
	sim := newTestSpace(t)

	const (
		audio   = testAnchor
		strings = testAnchor + 0x400
		group   memory.Addr = 0x200000
		heap    memory.Addr = 0x400000
	)

	sim.MapOrExit(group, 0x10000, "rw-p", "audiogroup1.dat")
	sim.MapOrExit(heap, 2<<20, "rw-p", "heap")

	// Embedded audio: one entry.
	sim.Poke(audio, []byte("AUDO"))
	poke(t, sim, audio+8, 1, 0x100)
	poke(t, sim, audio+16, 2)

	// Strings: two entries followed by a sentinel.
	sim.Poke(strings, []byte("STRG"))
	poke(t, sim, strings+12, 0x200, 0x210, 0)
	stringsCorrection := OffsetCorrection(strings+12, 0x200, 2)
	first := memory.Addr(0x200 + stringsCorrection)
	poke(t, sim, first, 3)
	sim.Poke(first+4, []byte("one\x00"))
	poke(t, sim, first+0x10, 3)
	sim.Poke(first+0x14, []byte("two\x00"))

	// External group: one entry.
	sim.Poke(group+0x30, []byte("FORM"))
	poke(t, sim, group+0x40, 1, 0x100)
	groupEntry := group + 0x44 + 4

	// Heap copies of the group entry's pointer.
	poke(t, sim, heap+0x40, uint32(groupEntry))
	poke(t, sim, heap+0x80, uint32(groupEntry)+4, 0)

	catalog := NewResolver(sim, testAnchors(t, audio, strings)).Resolve()

	if len(catalog.Diags) != 0 {
		t.Fatalf("expected no diagnostics - got %v", catalog.Diags)
	}

	if len(catalog.Audio) != 2 {
		t.Fatalf("expected 2 audio entries - got %d", len(catalog.Audio))
	}

	ext := catalog.Audio[1]
	if ext.Label != "AudioGroup 0 EmbeddedSound 0" || ext.Group != 0 || ext.Address != groupEntry {
		t.Fatalf("unexpected external entry: %+v", ext)
	}

	if ext.SecondarySlot != heap+0x40 || ext.SecondarySlot2 != heap+0x80 || ext.SecondarySizeSlot != heap+0x84 {
		t.Fatalf("unexpected secondary slots: %+v", ext)
	}

	if len(catalog.Strings) != 2 || catalog.Strings[0].Text != "one" || catalog.Strings[1].Label != "two" {
		t.Fatalf("unexpected strings: %+v", catalog.Strings)
	}
}

func TestResolver_TagMismatch(t *testing.T) {
	sim := newTestSpace(t)

	sim.Poke(testAnchor, []byte("STRG"))
	poke(t, sim, testAnchor+8, 1, 0x100)

	resolver := NewResolver(sim, testAnchors(t, testAnchor, testAnchor+0x400))
	resolver.SkipExternal = true
	resolver.SkipSecondary = true

	catalog := resolver.Resolve()

	if len(catalog.Audio) != 1 {
		t.Fatalf("resolution should carry on after a tag mismatch - got %d entries", len(catalog.Audio))
	}

	if catalog.Diags[0].Kind != DiagTagMismatch {
		t.Fatalf("expected a tag mismatch first - got %v", catalog.Diags)
	}
}
