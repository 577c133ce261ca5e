package config

import (
	"os"
	"path/filepath"
)

// configDir returns ~/.config/wincsv, or "." without a home directory.
func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "wincsv")
}

// defaultDBPath returns ~/.config/wincsv/positions.db.
func defaultDBPath() string {
	return filepath.Join(configDir(), "positions.db")
}

// DefaultConfigPath returns ~/.config/wincsv/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// SearchPaths returns the config file locations in order of precedence.
func SearchPaths() []string {
	return []string{
		"./wincsv.yaml",
		DefaultConfigPath(),
		"/etc/wincsv/config.yaml",
	}
}
