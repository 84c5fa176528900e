// Package defaults resolves the platform-specific data directory the agent
// uses for its config file, recording sessions and skill cache.
package defaults

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "deskstratum"

// DataDir returns (and creates if missing) the per-user data directory.
func DataDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "Library", "Application Support", appDirName)
	case "windows":
		base = filepath.Join(os.Getenv("APPDATA"), appDirName)
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share", appDirName)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return base, nil
}

// SessionsDir returns (and creates if missing) the directory recording
// sessions are written under.
func SessionsDir() (string, error) {
	data, err := DataDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(data, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// BrowserProfileDir returns (and creates if missing) the fixed profile
// directory the browser stratum's persistent context is launched against
// (§4.C3: "Owns a single persistent browser context stored under a fixed
// profile directory").
func BrowserProfileDir() (string, error) {
	data, err := DataDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(data, "browser-profile")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
