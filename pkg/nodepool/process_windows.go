//go:build windows

package nodepool

import (
	"os/exec"
	"time"
)

func setProcAttr(cmd *exec.Cmd) {
	// Process groups are POSIX; on Windows the worker is killed
	// directly.
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}

	_ = cmd.Process.Kill()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}
