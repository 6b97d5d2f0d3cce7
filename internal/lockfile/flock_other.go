//go:build !unix

package lockfile

import (
	"errors"
	"os"
)

var errWouldBlock = errors.New("lock would block")

// Without flock the PID record alone guards the daemon.
func flockExclusive(f *os.File) error {
	info, err := ReadInfo(f.Name())
	if err == nil && info.PID != os.Getpid() && IsRunning(info.PID) {
		return errWouldBlock
	}
	return nil
}

func flockUnlock(f *os.File) error {
	return nil
}

// IsRunning reports whether a process with the given PID exists.
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	return err == nil && p != nil
}
