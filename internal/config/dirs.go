package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDir returns the platform default config directory:
// %LOCALAPPDATA%\Mediarover (falling back to %APPDATA%) on Windows,
// ~/.mediarover elsewhere.
func DefaultDir() string {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "Mediarover")
		}
		if roaming := os.Getenv("APPDATA"); roaming != "" {
			return filepath.Join(roaming, "Mediarover")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mediarover"
	}
	return filepath.Join(home, ".mediarover")
}

// Discover resolves the config directory, honoring the
// MEDIAROVER_CONFIG environment variable over the platform default.
// The directory must exist and contain mediarover.conf.
func Discover(flagDir string) (string, error) {
	dir := flagDir
	if dir == "" {
		dir = os.Getenv("MEDIAROVER_CONFIG")
	}
	if dir == "" {
		dir = DefaultDir()
	}
	if _, err := os.Stat(FilePath(dir)); err != nil {
		return "", fmt.Errorf("config not found at %s: %w", FilePath(dir), err)
	}
	return dir, nil
}

// FilePath returns the main config file path within a config directory.
func FilePath(dir string) string {
	return filepath.Join(dir, "mediarover.conf")
}

// MetadataPath returns the metadata database path within a config
// directory.
func MetadataPath(dir string) string {
	return filepath.Join(dir, "ds", "metadata.db")
}
