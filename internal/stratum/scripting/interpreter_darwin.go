//go:build darwin

package scripting

// interpreterPath returns the OS-native scripting interpreter.
func interpreterPath() string { return "osascript" }

func interpreterArgs(scriptPath string) []string { return []string{scriptPath} }
