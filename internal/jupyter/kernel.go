package jupyter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/signalpilot-labs/sp-cli/internal/logging"
)

// KernelSpec is the content of a kernel.json file.
type KernelSpec struct {
	Name        string         `json:"-"`
	DisplayName string         `json:"display_name"`
	Argv        []string       `json:"argv"`
	Language    string         `json:"language"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

var kernelNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// NewKernelSpec returns the ipykernel spec for the given interpreter.
func NewKernelSpec(name, python, pythonVersion string) KernelSpec {
	return KernelSpec{
		Name:        name,
		DisplayName: fmt.Sprintf("SignalPilot (Python %s)", pythonVersion),
		Argv:        []string{python, "-m", "ipykernel_launcher", "-f", "{connection_file}"},
		Language:    "python",
		Metadata:    map[string]any{"debugger": true},
	}
}

// kernelIcons are copied from ipykernel's bundled python3 spec.
var kernelIcons = []string{"logo-32x32.png", "logo-64x64.png", "logo-svg.svg"}

// KernelRegistry is a directory of kernel specs (JUPYTER_DATA_DIR/kernels).
type KernelRegistry struct {
	Dir string
	// IconSource is a directory holding kernel logos; may be empty.
	IconSource string
}

// Register writes spec to <Dir>/<Name>/kernel.json, replacing any spec
// with the same name. Icon copying is best effort.
func (r KernelRegistry) Register(spec KernelSpec) error {
	if !kernelNameRe.MatchString(spec.Name) {
		return fmt.Errorf("invalid kernel name %q", spec.Name)
	}
	dir, err := securejoin.SecureJoin(r.Dir, spec.Name)
	if err != nil {
		return fmt.Errorf("resolving kernel dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating kernel dir: %w", err)
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "kernel.json"), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing kernel.json: %w", err)
	}

	if r.IconSource != "" {
		for _, icon := range kernelIcons {
			if err := copyFile(filepath.Join(r.IconSource, icon), filepath.Join(dir, icon)); err != nil && !errors.Is(err, os.ErrNotExist) {
				logging.Get().Warn("copying kernel icon", "icon", icon, "error", err)
			}
		}
	}
	return nil
}

// Load reads a registered spec.
func (r KernelRegistry) Load(name string) (KernelSpec, error) {
	dir, err := securejoin.SecureJoin(r.Dir, name)
	if err != nil {
		return KernelSpec{}, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "kernel.json"))
	if err != nil {
		return KernelSpec{}, err
	}
	var spec KernelSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return KernelSpec{}, fmt.Errorf("parsing %s kernel.json: %w", name, err)
	}
	spec.Name = name
	return spec, nil
}

// List returns the names of registered kernels, sorted. A missing
// registry directory lists nothing.
func (r KernelRegistry) List() ([]string, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.Dir, e.Name(), "kernel.json")); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
