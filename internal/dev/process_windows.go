//go:build windows

package dev

import (
	"context"
	"os"
	"os/exec"
	"time"
)

type processHandle struct {
	cmd *exec.Cmd
}

func startProcess(ctx context.Context, command []string, dir string, env []string) (*processHandle, error) {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = env

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &processHandle{cmd: cmd}, nil
}

func stopProcess(proc *processHandle) {
	if proc == nil || proc.cmd == nil || proc.cmd.Process == nil {
		return
	}

	_ = proc.cmd.Process.Kill()

	done := make(chan error, 1)
	go func() {
		done <- proc.cmd.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}
