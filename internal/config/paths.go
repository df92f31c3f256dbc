package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the roboadmin data directory.
// - Windows: %APPDATA%\roboadmin
// - Other OS: ~/.roboadmin
// ROBOADMIN_DATA_DIR overrides both.
func DataDir() string {
	if dir := os.Getenv("ROBOADMIN_DATA_DIR"); dir != "" {
		return dir
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "roboadmin")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".roboadmin"
	}
	return filepath.Join(home, ".roboadmin")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), "roboadmin.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
