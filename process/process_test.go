package process

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

type fakeBackend struct {
	sim     *memory.Simulated
	running atomic.Bool
}

func newFakeProcess(t *testing.T) (*Process, *fakeBackend) {
	sim := memory.NewSimulated()
	sim.MapOrExit(0x1000, 0x1000, "rw-p", "[heap]")
	sim.MapOrExit(0x4000, 0x1000, "---p", "")

	fb := &fakeBackend{sim: sim}
	fb.running.Store(true)

	return &Process{pid: 42, backend: fb, rwMu: &sync.RWMutex{}}, fb
}

func (o *fakeBackend) readAt(addr memory.Addr, n int) ([]byte, error) {
	return o.sim.ReadAt(addr, n)
}

func (o *fakeBackend) writeAt(addr memory.Addr, p []byte) error {
	return o.sim.WriteAt(addr, p)
}

func (o *fakeBackend) regions() ([]memory.Region, error) {
	return o.sim.Regions()
}

func (o *fakeBackend) allocator() memory.Allocator {
	return nil
}

func (o *fakeBackend) alive() bool {
	return o.running.Load()
}

func (o *fakeBackend) close() error {
	return nil
}

func TestOpen_InvalidPID(t *testing.T) {
	_, err := Open(0)
	if err == nil {
		t.Fatal("expected an error for pid 0")
	}
}

func TestProcess_RegionsSkipsUnreadable(t *testing.T) {
	proc, _ := newFakeProcess(t)

	regions, err := proc.Regions()
	if err != nil {
		t.Fatal(err)
	}

	if len(regions) != 1 || regions[0].Name != "[heap]" {
		t.Fatalf("expected only the heap region - got %v", regions)
	}
}

func TestProcess_Allocator(t *testing.T) {
	proc, _ := newFakeProcess(t)

	_, err := proc.Allocator().Alloc(8)
	if !errors.Is(err, ErrNoAllocator) {
		t.Fatalf("expected ErrNoAllocator - got %v", err)
	}

	err = proc.SetArena(0x1800, 0x100)
	if err != nil {
		t.Fatal(err)
	}

	block, err := proc.Allocator().Alloc(8)
	if err != nil {
		t.Fatal(err)
	}

	if block.Addr != 0x1800 {
		t.Fatalf("expected block at 0x1800 - got %s", block.Addr)
	}
}

func TestProcess_HasExitedAfterClose(t *testing.T) {
	proc, _ := newFakeProcess(t)

	if proc.HasExited() {
		t.Fatal("process should be running")
	}

	err := proc.Close()
	if err != nil {
		t.Fatal(err)
	}

	if !proc.HasExited() {
		t.Fatal("process should be reported as exited once closed")
	}
}

func TestExitCtx(t *testing.T) {
	proc, fb := newFakeProcess(t)

	ctx, cancelFn := ExitCtx(context.Background(), ExitCtxArgs{
		Process:      proc,
		PollInterval: time.Millisecond,
	})
	defer cancelFn()

	fb.running.Store(false)

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled after the process exited")
	}
}
