package process

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gitlab.com/stephen-fox/gmpatch/memory"
)

var (
	// ErrNotFound is returned when no running process matches
	// a search.
	ErrNotFound = errors.New("process not found")

	// ErrNoAllocator is returned by a Process' allocator when the
	// platform cannot allocate memory inside the target and no
	// arena was configured.
	ErrNoAllocator = errors.New("no allocator is available for the target - configure an arena")

	// ErrUnsupported is returned on platforms without a backend.
	ErrUnsupported = errors.New("live process access is not supported on this platform")
)

// backend is implemented once per platform.
type backend interface {
	readAt(addr memory.Addr, n int) ([]byte, error)
	writeAt(addr memory.Addr, p []byte) error
	regions() ([]memory.Region, error)
	// allocator may return nil if the platform cannot allocate
	// memory inside the target.
	allocator() memory.Allocator
	alive() bool
	close() error
}

// Open attaches to the process with the specified PID. The returned
// Process implements memory.AddressSpace.
func Open(pid int) (*Process, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("invalid pid: %d", pid)
	}

	b, err := openBackend(pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open pid %d - %w", pid, err)
	}

	return &Process{
		pid:     pid,
		backend: b,
		rwMu:    &sync.RWMutex{},
	}, nil
}

// OpenByName finds a running process by its executable name and
// attaches to it.
func OpenByName(exeName string) (*Process, error) {
	pid, err := FindPID(exeName)
	if err != nil {
		return nil, err
	}

	return Open(pid)
}

// FindPID returns the PID of the first running process whose
// executable name matches exeName, ignoring case.
func FindPID(exeName string) (int, error) {
	if exeName == "" {
		return 0, fmt.Errorf("executable name cannot be empty")
	}

	pid, err := findPID(exeName)
	if err != nil {
		return 0, err
	}

	if pid == 0 {
		return 0, fmt.Errorf("%q - %w", exeName, ErrNotFound)
	}

	return pid, nil
}

// Process is an attached target process.
type Process struct {
	pid     int
	backend backend
	rwMu    *sync.RWMutex
	arena   *memory.Arena
	closed  bool
	logger  *log.Logger
}

// PID returns the process ID.
func (o *Process) PID() int {
	return o.pid
}

// SetLogger sets a logger for debug messages. A nil logger
// disables logging.
func (o *Process) SetLogger(logger *log.Logger) {
	o.logger = logger
}

// SetArena makes the Process hand out target memory from the size
// bytes at start instead of using the platform's allocator. On Linux
// an arena is the only way to allocate.
func (o *Process) SetArena(start memory.Addr, size int) error {
	arena, err := memory.NewArena(start, size)
	if err != nil {
		return err
	}

	if o.logger != nil {
		first, end := arena.Bounds()
		o.logger.Printf("using arena %s-%s in pid %d", first, end, o.pid)
	}

	o.rwMu.Lock()
	o.arena = arena
	o.rwMu.Unlock()

	return nil
}

// Allocator returns the allocator used to reserve memory inside
// the target.
func (o *Process) Allocator() memory.Allocator {
	o.rwMu.RLock()
	defer o.rwMu.RUnlock()

	if o.arena != nil {
		return o.arena
	}

	a := o.backend.allocator()
	if a == nil {
		return noAllocator{}
	}

	return a
}

// ReadAt reads n bytes starting at addr.
func (o *Process) ReadAt(addr memory.Addr, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("read length cannot be negative")
	}

	if n == 0 {
		return []byte{}, nil
	}

	return o.backend.readAt(addr, n)
}

// WriteAt writes p starting at addr.
func (o *Process) WriteAt(addr memory.Addr, p []byte) error {
	if len(p) == 0 {
		return nil
	}

	if o.logger != nil {
		o.logger.Printf("writing %d bytes to %s", len(p), addr)
	}

	return o.backend.writeAt(addr, p)
}

// Regions enumerates the target's readable mapped regions.
func (o *Process) Regions() ([]memory.Region, error) {
	regions, err := o.backend.regions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate regions of pid %d - %w", o.pid, err)
	}

	readable := regions[:0]
	for _, r := range regions {
		if r.Readable() && r.Size() > 0 {
			readable = append(readable, r)
		}
	}

	return readable, nil
}

// HasExited reports whether the target is no longer running.
func (o *Process) HasExited() bool {
	o.rwMu.RLock()
	defer o.rwMu.RUnlock()

	if o.closed {
		return true
	}

	return !o.backend.alive()
}

// Close detaches from the process. Memory that was allocated inside
// the target is left as is.
func (o *Process) Close() error {
	o.rwMu.Lock()
	defer o.rwMu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	return o.backend.close()
}

type noAllocator struct{}

func (noAllocator) Alloc(int) (memory.Block, error) {
	return memory.Block{}, ErrNoAllocator
}

func (noAllocator) Free(memory.Addr) error {
	return ErrNoAllocator
}
