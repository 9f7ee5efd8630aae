//go:build windows

package launch

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachedAttr starts the child without a console and outside the
// launcher's process group, so closing the launcher never reaches it.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
	}
}
