//go:build unix

package tool

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the shell in its own process group and kills the group on cancel, so programs the
// template spawns do not outlive it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
