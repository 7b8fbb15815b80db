//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

// configureProcess places the child in its own process group and arranges
// for cancellation to kill the whole group. Without this, `sh -c` pipelines
// leave grandchildren running after the shell is killed on timeout.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
