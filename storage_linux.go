//go:build linux

package beethovision

import (
	"os"
	"path/filepath"
)

// getDefaultDataDir returns the default data directory for Linux.
// Uses $XDG_DATA_HOME/<appName>/datasets/ if set,
// otherwise ~/.local/share/<appName>/datasets/
func getDefaultDataDir(appName string) (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appName, "datasets"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "datasets"), nil
}
