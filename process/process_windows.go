//go:build windows

package process

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"gitlab.com/stephen-fox/gmpatch/memory"
	"golang.org/x/sys/windows"
)

const (
	openAccess = windows.PROCESS_VM_READ |
		windows.PROCESS_VM_WRITE |
		windows.PROCESS_VM_OPERATION |
		windows.PROCESS_QUERY_INFORMATION |
		windows.SYNCHRONIZE

	waitTimeout = 0x00000102
	pageSize    = 0x1000
)

var (
	modkernel32        = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocEx = modkernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx  = modkernel32.NewProc("VirtualFreeEx")
)

func openBackend(pid int) (backend, error) {
	h, err := windows.OpenProcess(openAccess, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess failed - %w", err)
	}

	return &windowsBackend{
		handle: h,
		alloc: &virtualAllocator{
			handle: h,
			live:   make(map[memory.Addr]struct{}),
		},
	}, nil
}

type windowsBackend struct {
	handle windows.Handle
	alloc  *virtualAllocator
}

func (o *windowsBackend) readAt(addr memory.Addr, n int) ([]byte, error) {
	out := make([]byte, n)

	var read uintptr
	err := windows.ReadProcessMemory(o.handle, uintptr(addr), &out[0], uintptr(n), &read)
	if err != nil {
		return nil, fmt.Errorf("ReadProcessMemory of %d bytes at %s failed - %w", n, addr, err)
	}

	if int(read) != n {
		return nil, fmt.Errorf("read %d of %d bytes at %s", read, n, addr)
	}

	return out, nil
}

func (o *windowsBackend) writeAt(addr memory.Addr, p []byte) error {
	var written uintptr
	err := windows.WriteProcessMemory(o.handle, uintptr(addr), &p[0], uintptr(len(p)), &written)
	if err != nil {
		return fmt.Errorf("WriteProcessMemory of %d bytes at %s failed - %w", len(p), addr, err)
	}

	if int(written) != len(p) {
		return fmt.Errorf("wrote %d of %d bytes at %s", written, len(p), addr)
	}

	return nil
}

// regions walks the target's address space with VirtualQueryEx,
// keeping committed pages that are neither guard nor no-access pages.
func (o *windowsBackend) regions() ([]memory.Region, error) {
	var regions []memory.Region
	var info windows.MemoryBasicInformation
	var current uintptr

	for {
		err := windows.VirtualQueryEx(o.handle, current, &info, unsafe.Sizeof(info))
		if err != nil {
			break
		}

		next := info.BaseAddress + info.RegionSize
		if next <= current {
			break
		}

		if info.State == windows.MEM_COMMIT {
			perms := protectToPerms(info.Protect)
			if perms != "" {
				regions = append(regions, memory.Region{
					Start: memory.Addr(info.BaseAddress),
					End:   memory.Addr(next),
					Perms: perms,
				})
			}
		}

		current = next
	}

	return regions, nil
}

func protectToPerms(protect uint32) string {
	if protect&windows.PAGE_GUARD != 0 || protect&windows.PAGE_NOACCESS != 0 {
		return ""
	}

	switch protect &^ (windows.PAGE_NOCACHE | windows.PAGE_WRITECOMBINE) {
	case windows.PAGE_READONLY:
		return "r--p"
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		return "rw-p"
	case windows.PAGE_EXECUTE_READ:
		return "r-xp"
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		return "rwxp"
	default:
		return ""
	}
}

func (o *windowsBackend) allocator() memory.Allocator {
	return o.alloc
}

func (o *windowsBackend) alive() bool {
	event, err := windows.WaitForSingleObject(o.handle, 0)
	return err == nil && event == waitTimeout
}

func (o *windowsBackend) close() error {
	return windows.CloseHandle(o.handle)
}

// virtualAllocator reserves memory inside the target using
// VirtualAllocEx. Every block occupies whole pages.
type virtualAllocator struct {
	handle windows.Handle
	mu     sync.Mutex
	live   map[memory.Addr]struct{}
}

func (o *virtualAllocator) Alloc(size int) (memory.Block, error) {
	if size <= 0 {
		return memory.Block{}, fmt.Errorf("allocation size must be greater than zero")
	}

	addr, _, err := procVirtualAllocEx.Call(
		uintptr(o.handle),
		0,
		uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE,
		windows.PAGE_READWRITE)
	if addr == 0 {
		return memory.Block{}, fmt.Errorf("VirtualAllocEx of %d bytes failed - %w", size, err)
	}

	o.mu.Lock()
	o.live[memory.Addr(addr)] = struct{}{}
	o.mu.Unlock()

	return memory.Block{
		Addr:     memory.Addr(addr),
		Size:     size,
		Capacity: (size + pageSize - 1) &^ (pageSize - 1),
	}, nil
}

func (o *virtualAllocator) Free(addr memory.Addr) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, hasIt := o.live[addr]
	if !hasIt {
		return fmt.Errorf("failed to free %s - %w", addr, memory.ErrDoubleFree)
	}

	ok, _, err := procVirtualFreeEx.Call(uintptr(o.handle), uintptr(addr), 0, windows.MEM_RELEASE)
	if ok == 0 {
		return fmt.Errorf("VirtualFreeEx at %s failed - %w", addr, err)
	}

	delete(o.live, addr)

	return nil
}

func findPID(exeName string) (int, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0, fmt.Errorf("CreateToolhelp32Snapshot failed - %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	err = windows.Process32First(snap, &entry)
	for err == nil {
		if strings.EqualFold(windows.UTF16ToString(entry.ExeFile[:]), exeName) {
			return int(entry.ProcessID), nil
		}

		err = windows.Process32Next(snap, &entry)
	}

	return 0, nil
}
