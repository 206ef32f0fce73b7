//go:build windows

package hostio

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

func openCommand(path string) *exec.Cmd {
	cmd := exec.Command("cmd", "/c", "start", "", path)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}

	return cmd
}
