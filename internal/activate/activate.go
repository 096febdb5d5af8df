// Package activate installs a permanent `sp` wrapper when the CLI is
// run through uvx.
package activate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/signalpilot-labs/sp-cli/internal/logging"
)

// WrapperScript execs the uvx-managed CLI.
const WrapperScript = `#!/bin/sh
# SignalPilot CLI wrapper
exec uvx sp-cli "$@"
`

// ErrNotEphemeral is returned when activate runs outside uvx.
var ErrNotEphemeral = errors.New("this command should be run via: uvx sp-cli activate")

// rcFiles are the shell startup files checked for a PATH entry.
var rcFiles = []string{".bashrc", ".zshrc"}

// Result lists what Activate changed.
type Result struct {
	Wrapper string
	// UpdatedRC names the rc files that gained a PATH export.
	UpdatedRC []string
}

// Activator writes the wrapper under Home.
type Activator struct {
	Home string
	// Ephemeral reports whether the process runs in a throwaway uvx
	// environment.
	Ephemeral func() bool
}

// LocalBin returns ~/.local/bin.
func (a *Activator) LocalBin() string {
	return filepath.Join(a.Home, ".local", "bin")
}

// Activate writes ~/.local/bin/sp and appends a PATH export to every
// existing rc file that does not mention .local/bin yet.
func (a *Activator) Activate() (Result, error) {
	var res Result
	if a.Ephemeral != nil && !a.Ephemeral() {
		return res, ErrNotEphemeral
	}

	bin := a.LocalBin()
	if err := os.MkdirAll(bin, 0755); err != nil {
		return res, fmt.Errorf("creating %s: %w", bin, err)
	}
	res.Wrapper = filepath.Join(bin, "sp")
	if err := os.WriteFile(res.Wrapper, []byte(WrapperScript), 0755); err != nil {
		return res, fmt.Errorf("writing wrapper: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(res.Wrapper, 0755); err != nil {
		return res, err
	}
	logging.Get().Info("wrote cli wrapper", "path", res.Wrapper)

	line := fmt.Sprintf("\n# SignalPilot CLI\nexport PATH=\"%s:$PATH\"\n", bin)
	for _, name := range rcFiles {
		path := filepath.Join(a.Home, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("reading %s: %w", path, err)
		}
		if strings.Contains(string(data), bin) || strings.Contains(string(data), ".local/bin") {
			continue
		}
		if err := appendFile(path, line); err != nil {
			return res, fmt.Errorf("updating %s: %w", path, err)
		}
		res.UpdatedRC = append(res.UpdatedRC, name)
	}
	return res, nil
}

func appendFile(path, s string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
