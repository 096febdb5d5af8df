package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// VersionInfo is the installed-version marker in system/version.toml.
type VersionInfo struct {
	Version        string     `toml:"version"`
	Python         string     `toml:"python"`
	Library        string     `toml:"library,omitempty"`
	LibraryVersion string     `toml:"library_version,omitempty"`
	InstalledAt    time.Time  `toml:"installed_at"`
	UpgradedAt     *time.Time `toml:"upgraded_at,omitempty"`
}

// ReadVersion loads path. A missing file returns a zero VersionInfo
// and fs.ErrNotExist.
func ReadVersion(path string) (VersionInfo, error) {
	var v VersionInfo
	if _, err := toml.DecodeFile(path, &v); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return VersionInfo{}, err
		}
		return VersionInfo{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

// WriteVersion replaces path with v.
func WriteVersion(path string, v VersionInfo) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("write version file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(v); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode version file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
