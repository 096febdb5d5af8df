package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestResolveDeterministic(t *testing.T) {
	a := Resolve("/tmp/ws")
	b := Resolve("/tmp/ws/")

	if a != b {
		t.Errorf("Resolve should be a pure function of the root:\n%+v\n%+v", a, b)
	}
	if a.Config != "/tmp/ws/.signalpilot" {
		t.Errorf("Config = %q, want /tmp/ws/.signalpilot", a.Config)
	}
	if a.Venv != "/tmp/ws/.venv" {
		t.Errorf("Venv = %q, want /tmp/ws/.venv", a.Venv)
	}
	if a.UserWorkspace != "/tmp/ws/user-workspace" {
		t.Errorf("UserWorkspace = %q, want /tmp/ws/user-workspace", a.UserWorkspace)
	}
	if filepath.Dir(a.Kernels) != a.JupyterData {
		t.Errorf("kernels dir %q should be under jupyter data %q", a.Kernels, a.JupyterData)
	}
}

func TestResolveRolesDistinct(t *testing.T) {
	for _, l := range []Layout{Resolve("/tmp/ws"), ResolveProject("/tmp/proj")} {
		seen := make(map[string]string)
		for _, r := range l.Roles() {
			if other, ok := seen[r.Path]; ok {
				t.Errorf("%s layout: roles %q and %q share path %q", l.Mode, other, r.Name, r.Path)
			}
			seen[r.Path] = r.Name
		}
	}
}

func TestResolveProject(t *testing.T) {
	l := ResolveProject("/tmp/proj")

	if l.Mode != ModeProject {
		t.Errorf("Mode = %v, want project", l.Mode)
	}
	if l.LabDir(true) != "/tmp/proj" || l.LabDir(false) != "/tmp/proj" {
		t.Errorf("project lab dir should be the root, got %q/%q", l.LabDir(true), l.LabDir(false))
	}
	if l.TeamWorkspace != "" || l.System != "" {
		t.Errorf("project layout should have no team or system roles")
	}

	env := l.JupyterEnv()
	if len(env) != 1 || env["JUPYTER_CONFIG_DIR"] != "/tmp/proj/.signalpilot" {
		t.Errorf("project JupyterEnv = %v, want only JUPYTER_CONFIG_DIR", env)
	}
}

func TestJupyterEnvGlobal(t *testing.T) {
	l := Resolve("/tmp/ws")
	env := l.JupyterEnv()

	want := map[string]string{
		"JUPYTER_CONFIG_DIR":  l.Config,
		"JUPYTER_CONFIG_PATH": l.ConfigDefaults,
		"JUPYTER_DATA_DIR":    l.JupyterData,
		"JUPYTER_RUNTIME_DIR": l.JupyterRuntime,
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("%s = %q, want %q", k, env[k], v)
		}
	}
}

func TestLabDir(t *testing.T) {
	l := Resolve("/tmp/ws")
	if got := l.LabDir(false); got != l.UserWorkspace {
		t.Errorf("LabDir(false) = %q, want %q", got, l.UserWorkspace)
	}
	if got := l.LabDir(true); got != l.TeamWorkspace {
		t.Errorf("LabDir(true) = %q, want %q", got, l.TeamWorkspace)
	}
}

func TestAgentContainment(t *testing.T) {
	l := Resolve("/tmp/ws")

	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/ws/user-workspace/demo-project/a.ipynb", true},
		{"/tmp/ws/team-workspace/notebooks", true},
		{"/tmp/ws/connect/db.toml", false},
		{"/tmp/ws/connect", false},
		{"/tmp/ws/.signalpilot/user-cli.toml", false},
		{"/tmp/ws/default-skills/x.md", false},
		{"/tmp/ws/user-workspace/../connect/.env", false},
		{"/tmp/other", false},
	}
	for _, tt := range tests {
		if got := l.IsAgentAccessible(tt.path); got != tt.want {
			t.Errorf("IsAgentAccessible(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	for _, d := range l.AgentAccessible() {
		if d == l.Connections {
			t.Error("connections must never be agent-accessible")
		}
	}
}

func TestDirectoriesExcludeVenv(t *testing.T) {
	l := Resolve("/tmp/ws")
	for _, d := range l.Directories() {
		if d == l.Venv {
			t.Error("Directories should not include the venv")
		}
	}
	sys := l.SystemDirectories()
	if len(sys) != 3 {
		t.Fatalf("SystemDirectories = %v, want config, venv, system", sys)
	}
}

func TestIsInitialized(t *testing.T) {
	l := Resolve(t.TempDir())
	if l.IsInitialized() {
		t.Fatal("empty root should not be initialized")
	}

	py := l.VenvPython()
	if err := os.MkdirAll(filepath.Dir(py), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(py, nil, 0755); err != nil {
		t.Fatal(err)
	}
	if !l.IsInitialized() {
		t.Error("root with venv interpreter should be initialized")
	}
}

func TestDetectProject(t *testing.T) {
	dir := t.TempDir()
	if _, ok := DetectProject(dir); ok {
		t.Fatal("empty dir should not be a project")
	}
	for _, d := range []string{".signalpilot", ".venv"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	l, ok := DetectProject(dir)
	if !ok || l.Home != dir {
		t.Errorf("DetectProject = %+v, %v", l, ok)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SP_HOME", t.TempDir())
	t.Setenv("SP_PYTHON_VERSION", "")
	t.Setenv("SP_LIBRARY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s := cfg.Settings
	if s.PythonVersion != DefaultPythonVersion {
		t.Errorf("PythonVersion = %q, want %q", s.PythonVersion, DefaultPythonVersion)
	}
	if s.Library != DefaultLibrary {
		t.Errorf("Library = %q, want %q", s.Library, DefaultLibrary)
	}
	if s.Timeouts.Packages.Duration != 15*time.Minute {
		t.Errorf("Packages timeout = %v, want 15m", s.Timeouts.Packages)
	}
	if !s.NotifyEnabled() {
		t.Error("notifications should default to on")
	}
	if len(cfg.Sources) != 0 {
		t.Errorf("Sources = %v, want none", cfg.Sources)
	}
}

func TestLoadTwoTier(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SP_HOME", home)
	t.Setenv("SP_PYTHON_VERSION", "")
	t.Setenv("SP_LIBRARY", "")

	l := Resolve(home)
	if err := os.MkdirAll(l.ConfigDefaults, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.DefaultCLIConfig, []byte(CLIDefaultsTOML), 0644); err != nil {
		t.Fatal(err)
	}
	user := "library = \"signalpilot-ai-internal\"\n[timeouts]\npackages = \"20m\"\n"
	if err := os.WriteFile(l.UserCLIConfig, []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Settings.Library != "signalpilot-ai-internal" {
		t.Errorf("Library = %q, want user override", cfg.Settings.Library)
	}
	if cfg.Settings.Timeouts.Packages.Duration != 20*time.Minute {
		t.Errorf("Packages timeout = %v, want 20m", cfg.Settings.Timeouts.Packages)
	}
	// Keys absent from user-cli.toml keep the defaults-file value.
	if cfg.Settings.Timeouts.Interpreter.Duration != 10*time.Minute {
		t.Errorf("Interpreter timeout = %v, want 10m", cfg.Settings.Timeouts.Interpreter)
	}
	if len(cfg.Sources) != 2 {
		t.Errorf("Sources = %v, want both files", cfg.Sources)
	}
}

func TestLoadUserOnly(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SP_HOME", home)
	t.Setenv("SP_LIBRARY", "")

	l := Resolve(home)
	if err := os.MkdirAll(l.Config, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.UserCLIConfig, []byte("port = 9999\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Settings.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Settings.Port)
	}
	if cfg.Settings.Library != DefaultLibrary {
		t.Errorf("Library = %q, want default", cfg.Settings.Library)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SP_HOME", home)

	l := Resolve(home)
	if err := os.MkdirAll(l.Config, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.UserCLIConfig, []byte("library = \n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "user-cli.toml") {
		t.Errorf("Load() error = %v, want parse error naming the file", err)
	}
}

func TestDefaultConfigKeepsHomeOverride(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, l Layout)
	}{
		{
			name: "malformed user settings",
			setup: func(t *testing.T, l Layout) {
				if err := os.MkdirAll(l.Config, 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(l.UserCLIConfig, []byte("library = \n"), 0644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "unparsable SP_ bool",
			setup: func(t *testing.T, _ Layout) {
				t.Setenv("SP_LOG_DEBUG", "maybe")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("SP_HOME", home)
			tt.setup(t, Resolve(home))

			if _, err := Load(); err == nil {
				t.Fatal("Load() should fail")
			}
			cfg := DefaultConfig()
			if cfg.Layout.Home != filepath.Clean(home) {
				t.Errorf("fallback Home = %q, want %q", cfg.Layout.Home, home)
			}
			if cfg.Settings.Library != DefaultLibrary {
				t.Errorf("fallback Library = %q, want default", cfg.Settings.Library)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SP_HOME", home)
	t.Setenv("SP_PYTHON_VERSION", "3.11")
	t.Setenv("SP_LIBRARY", "custom-lib")
	t.Setenv("SP_LOG_DEBUG", "true")
	t.Setenv("SP_NO_NOTIFY", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Layout.Home != home {
		t.Errorf("Home = %q, want %q", cfg.Layout.Home, home)
	}
	if cfg.Settings.PythonVersion != "3.11" {
		t.Errorf("PythonVersion = %q, want 3.11", cfg.Settings.PythonVersion)
	}
	if cfg.Settings.Library != "custom-lib" {
		t.Errorf("Library = %q, want custom-lib", cfg.Settings.Library)
	}
	if !cfg.Settings.Log.Debug {
		t.Error("SP_LOG_DEBUG should enable debug logging")
	}
	if cfg.Settings.NotifyEnabled() {
		t.Error("SP_NO_NOTIFY should disable notifications")
	}
}

func TestCoreSettingsRoundTrip(t *testing.T) {
	l := Resolve("/tmp/ws")

	var buf bytes.Buffer
	if err := EncodeCoreSettings(&buf, l.CoreSettings()); err != nil {
		t.Fatal(err)
	}

	var got CoreSettings
	if _, err := toml.Decode(buf.String(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	for _, p := range got.Agent.Accessible {
		if strings.HasPrefix(p, "connect") {
			t.Errorf("accessible list contains %q", p)
		}
	}
	found := false
	for _, p := range got.Agent.Inaccessible {
		if p == "connect" {
			found = true
		}
	}
	if !found {
		t.Errorf("inaccessible list %v should contain connect", got.Agent.Inaccessible)
	}
}
