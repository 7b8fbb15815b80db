//go:build windows

package executor

import "os/exec"

// configureProcess is a no-op on Windows; CommandContext's default kill
// terminates the child directly.
func configureProcess(cmd *exec.Cmd) {}
