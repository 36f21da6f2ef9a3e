// Package datasource manages the local SQLite mirror that backs showroom
// between sessions: per-collection row snapshots for offline startup and a
// durable journal of queued saves so pending writes survive a restart.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultFileName is the mirror database file inside the data directory.
const DefaultFileName = "showroom.db"

// DataDir resolves the mirror directory: SR_DATA_DIR when set, otherwise
// the XDG data home.
func DataDir() (string, error) {
	if dir := os.Getenv("SR_DATA_DIR"); dir != "" {
		return dir, nil
	}

	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving data directory: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "showroom"), nil
}

// DefaultPath returns the mirror database path, creating the directory if
// needed.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// Info describes the state of a mirror file for the startup banner.
type Info struct {
	Path    string
	ModTime time.Time
	Size    int64
	Exists  bool
}

// Stat inspects a mirror path without opening it.
func Stat(path string) Info {
	info := Info{Path: path}
	st, err := os.Stat(path)
	if err != nil {
		return info
	}
	info.Exists = true
	info.ModTime = st.ModTime()
	info.Size = st.Size()
	return info
}

// String returns a human-readable description of the mirror.
func (i Info) String() string {
	if !i.Exists {
		return fmt.Sprintf("%s (absent)", i.Path)
	}
	return fmt.Sprintf("%s (mod=%s, %d bytes)", i.Path, i.ModTime.Format(time.RFC3339), i.Size)
}
