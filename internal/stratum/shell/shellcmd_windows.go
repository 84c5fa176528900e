//go:build windows

package shell

func shellCommand(command string) (string, []string) {
	return "cmd.exe", []string{"/C", command}
}
