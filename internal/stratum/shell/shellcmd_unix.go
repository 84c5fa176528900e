//go:build !windows

package shell

func shellCommand(command string) (string, []string) {
	return "/bin/sh", []string{"-c", command}
}
