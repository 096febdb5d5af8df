package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/logging"
)

// MigrationState records which layout migrations have been applied.
type MigrationState struct {
	Applied map[string]time.Time `json:"applied"` // id → applied at
	path    string
}

// LoadMigrationState loads or creates the state in dir.
func LoadMigrationState(dir string) (*MigrationState, error) {
	path := filepath.Join(dir, "state.json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &MigrationState{Applied: make(map[string]time.Time), path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migration state: %w", err)
	}

	var st MigrationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse migration state: %w", err)
	}
	st.path = path
	if st.Applied == nil {
		st.Applied = make(map[string]time.Time)
	}
	return &st, nil
}

// Done reports whether id has been applied.
func (s *MigrationState) Done(id string) bool {
	_, ok := s.Applied[id]
	return ok
}

// Record marks id applied and saves.
func (s *MigrationState) Record(id string) error {
	s.Applied[id] = time.Now().UTC()
	return s.save()
}

func (s *MigrationState) save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0644)
}

type migration struct {
	id  string
	run func(l config.Layout) error
}

// migrations run in order; each at most once.
var migrations = []migration{
	{id: "legacy-config-dir", run: migrateLegacyConfigDir},
	{id: "legacy-notebooks-dir", run: migrateLegacyNotebooksDir},
}

// runMigrations applies pending migrations and returns their ids. A
// failed migration is not recorded and stops the run.
func runMigrations(l config.Layout) ([]string, error) {
	if l.Migrations == "" {
		return nil, nil
	}
	st, err := LoadMigrationState(l.Migrations)
	if err != nil {
		return nil, err
	}

	log := logging.Get()
	var applied []string
	for _, m := range migrations {
		if st.Done(m.id) {
			continue
		}
		done := log.Step("migration " + m.id)
		err := m.run(l)
		done(err)
		if err != nil {
			return applied, fmt.Errorf("migration %s: %w", m.id, err)
		}
		if err := st.Record(m.id); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", m.id, err)
		}
		applied = append(applied, m.id)
	}
	return applied, nil
}

// AppliedMigrations lists recorded migration ids, sorted.
func AppliedMigrations(l config.Layout) []string {
	if l.Migrations == "" {
		return nil
	}
	st, err := LoadMigrationState(l.Migrations)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(st.Applied))
	for id := range st.Applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// migrateLegacyConfigDir copies files from <root>/config into the
// config directory without overwriting anything already there.
func migrateLegacyConfigDir(l config.Layout) error {
	src := filepath.Join(l.Home, "config")
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil
	}
	if err != nil {
		return err
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(l.Config, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, err := os.Stat(dst); err == nil {
			return nil
		}
		return copyFile(path, dst)
	})
}

// migrateLegacyNotebooksDir moves <root>/notebooks into the user
// workspace when the target does not exist yet.
func migrateLegacyNotebooksDir(l config.Layout) error {
	if l.UserWorkspace == "" {
		return nil
	}
	src := filepath.Join(l.Home, "notebooks")
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return nil
	}
	dst := filepath.Join(l.UserWorkspace, "notebooks")
	if _, err := os.Stat(dst); err == nil {
		logging.Get().Warn("legacy notebooks dir left in place; target exists", "src", src, "dst", dst)
		return nil
	}
	if err := os.MkdirAll(l.UserWorkspace, 0755); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}
