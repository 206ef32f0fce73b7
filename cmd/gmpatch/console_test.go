package main

import (
	"context"
	"io"
	"strings"
	"testing"

	"gitlab.com/stephen-fox/gmpatch/engine"
	"gitlab.com/stephen-fox/gmpatch/memory"
	"gitlab.com/stephen-fox/gmpatch/resource"
)

func newConsoleSession(t *testing.T) (*engine.Session, *memory.Arena) {
	sim := memory.NewSimulated()
	sim.MapOrExit(0x1000, 0x1000, "rw-p", "")
	sim.MapOrExit(0x8000, 0x1000, "rw-p", "")

	// One string, "menu", directly after a single slot.
	sim.Poke(0x1000, []byte("STRG"))
	sim.PokeUint32(0x100c, 0x100)
	sim.PokeUint32(0x1010, 4)
	sim.Poke(0x1014, []byte("menu\x00"))
	sim.PokeUint32(0x1100, 3)

	arena, err := memory.NewArena(0x8000, 0x1000)
	if err != nil {
		t.Fatal(err)
	}

	anchors, err := memory.NewAnchorTable("test").
		AddAnchorInBuild(resource.AnchorStrings, 0x1000, "test").
		AddAnchorInBuild(resource.AnchorGameID, 0x1100, "test").
		Select("test")
	if err != nil {
		t.Fatal(err)
	}

	return engine.NewSession(engine.Config{
		Space:     sim,
		Allocator: arena,
		Anchors:   anchors,
	}), arena
}

func TestRunConsole(t *testing.T) {
	session, arena := newConsoleSession(t)

	in := strings.NewReader(strings.Join([]string{
		"strings",
		`set 0 main\nmenu`,
		"show 0",
		"search MAIN",
		"restore 0",
		"restore 0",
		"gameid 12",
		"gameid",
		"bogus",
		"quit",
		"strings",
	}, "\n"))

	var out strings.Builder

	err := runConsole(context.Background(), session, in, &out)
	if err != nil {
		t.Fatal(err)
	}

	for _, exp := range []string{
		"0: menu <",
		"main\nmenu\n",
		`found 0 [selected]: main\nmenu`,
		"the entry has not been modified",
		"> 12\n",
		`error: unknown command "bogus"`,
	} {
		if !strings.Contains(out.String(), exp) {
			t.Fatalf("expected output to contain %q - got:\n%s", exp, out.String())
		}
	}

	if strings.Count(out.String(), "0: menu") != 1 {
		t.Fatalf("commands after quit must not run - got:\n%s", out.String())
	}

	if arena.Live() != 0 {
		t.Fatalf("expected no live buffers - got %d", arena.Live())
	}
}

func TestRunConsole_ContextDone(t *testing.T) {
	session, _ := newConsoleSession(t)

	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()

	// A reader that never returns stands in for an idle terminal.
	blocked, _ := newBlockedReader()
	defer blocked.Close()

	err := runConsole(ctx, session, blocked, &strings.Builder{})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled - got %v", err)
	}
}

func newBlockedReader() (*io.PipeReader, *io.PipeWriter) {
	return io.Pipe()
}
