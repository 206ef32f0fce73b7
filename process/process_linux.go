//go:build linux

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gitlab.com/stephen-fox/gmpatch/memory"
	"golang.org/x/sys/unix"
)

func openBackend(pid int) (backend, error) {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	if err != nil {
		return nil, err
	}

	return &linuxBackend{pid: pid}, nil
}

// linuxBackend accesses the target with process_vm_readv(2) and
// process_vm_writev(2). These require ptrace access to the target
// (same user and a permissive kernel.yama.ptrace_scope, or
// CAP_SYS_PTRACE).
type linuxBackend struct {
	pid int
}

func (o *linuxBackend) readAt(addr memory.Addr, n int) ([]byte, error) {
	out := make([]byte, n)

	local := []unix.Iovec{{Base: &out[0]}}
	local[0].SetLen(n)

	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: n}}

	got, err := unix.ProcessVMReadv(o.pid, local, remote, 0)
	if err != nil {
		return nil, fmt.Errorf("process_vm_readv of %d bytes at %s failed - %w", n, addr, err)
	}

	if got != n {
		return nil, fmt.Errorf("read %d of %d bytes at %s - %w", got, n, addr, io.ErrUnexpectedEOF)
	}

	return out, nil
}

func (o *linuxBackend) writeAt(addr memory.Addr, p []byte) error {
	local := []unix.Iovec{{Base: &p[0]}}
	local[0].SetLen(len(p))

	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(p)}}

	got, err := unix.ProcessVMWritev(o.pid, local, remote, 0)
	if err != nil {
		return fmt.Errorf("process_vm_writev of %d bytes at %s failed - %w", len(p), addr, err)
	}

	if got != len(p) {
		return fmt.Errorf("wrote %d of %d bytes at %s - %w", got, len(p), addr, io.ErrShortWrite)
	}

	return nil
}

func (o *linuxBackend) regions() ([]memory.Region, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", o.pid))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseMaps(f)
}

// Linux offers no way to allocate inside another process without
// injecting code, so an arena must be configured.
func (o *linuxBackend) allocator() memory.Allocator {
	return nil
}

func (o *linuxBackend) alive() bool {
	err := unix.Kill(o.pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func (o *linuxBackend) close() error {
	return nil
}

// findPID matches exeName against each process' comm and the base
// name of its first argument. Wine processes report Windows-style
// paths in their arguments, so backslashes are treated as separators.
func findPID(exeName string) (int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		comm, _ := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
		if strings.EqualFold(strings.TrimSpace(string(comm)), exeName) {
			return pid, nil
		}

		cmdline, _ := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
		argv0, _, _ := strings.Cut(string(cmdline), "\x00")
		if argv0 == "" {
			continue
		}

		base := filepath.Base(strings.ReplaceAll(argv0, `\`, "/"))
		if strings.EqualFold(base, exeName) {
			return pid, nil
		}
	}

	return 0, nil
}
