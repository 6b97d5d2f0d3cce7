//go:build unix

package daemon

import (
	"os/exec"
	"syscall"
)

// configureDetached puts the child in its own session so it survives the
// terminal that started it.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}
