// Package appdir resolves where drawer keeps its configuration and data.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	Name             = "drawer"
	ConfigFileName   = "config.yaml"
	DatabaseFileName = "drawer.db"
	MarkerFileName   = "self-write"
)

// Dirs holds the configuration and data directories.
type Dirs struct {
	Config string
	Data   string
}

// Default returns the XDG base directories for drawer, e.g.
// ~/.config/drawer and ~/.local/share/drawer on Linux.
func Default() Dirs {
	return Dirs{
		Config: filepath.Join(xdg.ConfigHome, Name),
		Data:   filepath.Join(xdg.DataHome, Name),
	}
}

// WithRoot returns directories below root (for testing)
func WithRoot(root string) Dirs {
	return Dirs{
		Config: filepath.Join(root, "config"),
		Data:   filepath.Join(root, "data"),
	}
}

// ConfigFile returns the path of the configuration file.
func (d Dirs) ConfigFile() string {
	return filepath.Join(d.Config, ConfigFileName)
}

// MarkerFile returns the file shared by drawer processes to recognise
// their own clipboard writes.
func (d Dirs) MarkerFile() string {
	return filepath.Join(d.Data, MarkerFileName)
}

// DatabasePath resolves the database location.
// If custom is empty, uses <data>/drawer.db
// If custom is absolute, uses it directly
// If custom is relative, treats it as relative to the data directory
func (d Dirs) DatabasePath(custom string) string {
	switch {
	case custom == "":
		return filepath.Join(d.Data, DatabaseFileName)
	case filepath.IsAbs(custom):
		return custom
	default:
		return filepath.Join(d.Data, custom)
	}
}

// EnsureParent creates the directory that will hold path.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
