package activate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func ephemeral(v bool) func() bool { return func() bool { return v } }

func TestActivateRequiresUVX(t *testing.T) {
	home := t.TempDir()
	a := &Activator{Home: home, Ephemeral: ephemeral(false)}

	if _, err := a.Activate(); !errors.Is(err, ErrNotEphemeral) {
		t.Fatalf("Activate() error = %v, want ErrNotEphemeral", err)
	}
	if _, err := os.Stat(a.LocalBin()); !os.IsNotExist(err) {
		t.Error("nothing should be written outside uvx")
	}
}

func TestActivate(t *testing.T) {
	home := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(home, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(".bashrc", "alias ll='ls -l'\n")
	write(".zshrc", "export PATH=\"$HOME/.local/bin:$PATH\"\n")

	a := &Activator{Home: home, Ephemeral: ephemeral(true)}
	res, err := a.Activate()
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	info, err := os.Stat(res.Wrapper)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("wrapper mode = %v, want 0755", info.Mode().Perm())
	}
	data, _ := os.ReadFile(res.Wrapper)
	if string(data) != WrapperScript {
		t.Errorf("wrapper = %q", data)
	}

	if len(res.UpdatedRC) != 1 || res.UpdatedRC[0] != ".bashrc" {
		t.Errorf("UpdatedRC = %v, want [.bashrc]", res.UpdatedRC)
	}
	bashrc, _ := os.ReadFile(filepath.Join(home, ".bashrc"))
	if !strings.Contains(string(bashrc), "# SignalPilot CLI\nexport PATH=\""+a.LocalBin()+":$PATH\"") {
		t.Errorf(".bashrc = %q", bashrc)
	}

	// Running again changes nothing.
	res, err = a.Activate()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.UpdatedRC) != 0 {
		t.Errorf("second run updated %v", res.UpdatedRC)
	}
}

func TestActivateSkipsMissingRC(t *testing.T) {
	home := t.TempDir()
	a := &Activator{Home: home, Ephemeral: ephemeral(true)}
	res, err := a.Activate()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.UpdatedRC) != 0 {
		t.Errorf("UpdatedRC = %v", res.UpdatedRC)
	}
	for _, name := range rcFiles {
		if _, err := os.Stat(filepath.Join(home, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not be created", name)
		}
	}
}
