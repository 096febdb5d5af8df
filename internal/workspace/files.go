package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/signalpilot-labs/sp-cli/internal/config"
)

// placeholder is a file init creates when it does not exist yet.
type placeholder struct {
	path    string
	content []byte
	mode    os.FileMode
	// shipped files are owned by sp and rewritten on repair.
	shipped bool
}

const skillRegistryContent = "{}\n"

func placeholders(l config.Layout) ([]placeholder, error) {
	var core bytes.Buffer
	if err := config.EncodeCoreSettings(&core, l.CoreSettings()); err != nil {
		return nil, fmt.Errorf("encode core settings: %w", err)
	}

	files := []placeholder{
		{path: l.DefaultCLIConfig, content: []byte(config.CLIDefaultsTOML), mode: 0644, shipped: true},
		{path: l.DefaultCoreConfig, content: core.Bytes(), mode: 0644, shipped: true},
		{path: l.DefaultJupyterConfig, content: []byte(config.JupyterDefaultsPy), mode: 0644, shipped: true},
		{path: l.UserCLIConfig, content: []byte(config.UserCLITemplate), mode: 0644},
		{path: l.UserCoreConfig, content: []byte("# SignalPilot core overrides. Keys here override defaults/sp-core.toml.\n"), mode: 0644},
		{path: l.UserJupyterConfig, content: []byte(config.UserJupyterTemplate), mode: 0644},

		// Credentials: owner-only.
		{path: l.ConnectionsDB, content: []byte("# Database connections\n"), mode: 0600},
		{path: l.ConnectionsMCP, content: []byte("{\n  \"mcpServers\": {}\n}\n"), mode: 0600},
		{path: l.ConnectionsEnv, content: []byte("# Secrets for connections (KEY=value)\n"), mode: 0600},
		{path: l.ConnectionsManifest, content: []byte("# Connected folders\n"), mode: 0600},

		{path: l.UserSkillRegistry, content: []byte(skillRegistryContent), mode: 0644},
		{path: l.TeamSkillRegistry, content: []byte(skillRegistryContent), mode: 0644},
	}

	out := files[:0]
	for _, f := range files {
		if f.path != "" {
			out = append(out, f)
		}
	}
	return out, nil
}

// writeIfAbsent creates path with content unless it already exists.
func writeIfAbsent(path string, content []byte, mode os.FileMode) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return false, err
	}
	return true, f.Close()
}

// writePlaceholders creates missing files. With refresh, shipped
// defaults are rewritten even when present; user files never are.
func writePlaceholders(l config.Layout, refresh bool) ([]string, error) {
	files, err := placeholders(l)
	if err != nil {
		return nil, err
	}
	var created []string
	for _, f := range files {
		if refresh && f.shipped {
			if err := os.WriteFile(f.path, f.content, f.mode); err != nil {
				return created, fmt.Errorf("write %s: %w", f.path, err)
			}
			continue
		}
		ok, err := writeIfAbsent(f.path, f.content, f.mode)
		if err != nil {
			return created, fmt.Errorf("write %s: %w", f.path, err)
		}
		if ok {
			created = append(created, f.path)
		}
	}
	return created, nil
}

func ensureDirectories(l config.Layout) error {
	for _, d := range l.Directories() {
		mode := os.FileMode(0755)
		if d == l.Connections || d == l.ConnectionsFolders {
			mode = 0700
		}
		if err := os.MkdirAll(d, mode); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}
