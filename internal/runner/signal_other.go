//go:build !unix

package runner

import "os/exec"

func setProcessGroup(*exec.Cmd) {}

// terminate kills immediately: there is no portable graceful signal.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func kill(cmd *exec.Cmd) error {
	return terminate(cmd)
}
