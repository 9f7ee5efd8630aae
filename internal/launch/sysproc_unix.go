//go:build unix

package launch

import "syscall"

// detachedAttr puts the child in its own session so it survives the
// launcher's terminal closing.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
