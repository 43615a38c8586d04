// Package config provides configuration management for founder.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds the directories founder reads and writes.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/founder)
	ConfigDir string

	// DataDir is the directory for the history file (~/.local/share/founder)
	DataDir string
}

// DefaultPaths returns the default paths based on the XDG Base
// Directory spec. On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}
		return &Paths{
			ConfigDir: filepath.Join(appData, "founder"),
			DataDir:   filepath.Join(localAppData, "founder"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	return &Paths{
		ConfigDir: filepath.Join(configHome, "founder"),
		DataDir:   filepath.Join(dataHome, "founder"),
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// HistoryFile returns the path to the persisted selection history.
// History is global: one file shared by every working directory, which
// is what lets frequently-used files stay reachable from anywhere.
func (p *Paths) HistoryFile() string {
	return filepath.Join(p.DataDir, "history")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
