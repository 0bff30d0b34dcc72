//go:build unix

package runner

import (
	"os/exec"
	"syscall"
	"time"
)

// configureProcessGroup places the child in its own process group so that
// cancellation also kills helpers it spawned (office suites fork).
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second
}
