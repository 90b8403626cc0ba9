//go:build !windows

package ytdlp

import (
	"os/exec"
	"syscall"
)

// configureProcess starts the tool in its own process group so cancellation
// also reaches the ffmpeg children it spawns.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
