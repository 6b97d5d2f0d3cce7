//go:build !unix

package daemon

import (
	"os"
	"os/exec"
)

func configureDetached(cmd *exec.Cmd) {}

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
