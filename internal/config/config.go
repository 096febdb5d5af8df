// Package config resolves the SignalPilot workspace layout and loads
// CLI settings from the two-tier TOML files and SP_* environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	DefaultPythonVersion = "3.12"
	DefaultLibrary       = "signalpilot-ai"
	DefaultKernelName    = "signalpilot"
	DefaultPort          = 8888
)

// Settings represents the merged contents of cli.toml and user-cli.toml.
type Settings struct {
	PythonVersion string `toml:"python_version"`
	// Library is the product package installed into the environment.
	Library    string `toml:"library"`
	KernelName string `toml:"kernel_name"`
	Port       int    `toml:"port"`

	// Notify sends a desktop notification when init completes (nil means true).
	Notify *bool `toml:"notify"`

	Timeouts TimeoutSettings `toml:"timeouts"`
	Log      LogSettings     `toml:"log"`
}

// TimeoutSettings bounds the network-bound package manager steps.
type TimeoutSettings struct {
	ToolInstall Duration `toml:"tool_install"`
	Interpreter Duration `toml:"interpreter"`
	Packages    Duration `toml:"packages"`
}

// LogSettings configures logging behavior.
type LogSettings struct {
	MaxSizeMB  int  `toml:"max_size_mb"`  // default: 10
	MaxBackups int  `toml:"max_backups"`  // default: 3
	MaxAgeDays int  `toml:"max_age_days"` // default: 28
	Compress   bool `toml:"compress"`
	Debug      bool `toml:"debug"`
}

// Duration decodes TOML strings such as "5m" or "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// NotifyEnabled reports whether desktop notifications are on.
func (s Settings) NotifyEnabled() bool {
	return s.Notify == nil || *s.Notify
}

// Env holds the SP_* environment overrides.
type Env struct {
	Home          string
	PythonVersion string `split_words:"true"`
	Library       string
	LogDebug      bool `split_words:"true"`
	NoNotify      bool `split_words:"true"`
}

// Config holds runtime configuration (layout + settings).
type Config struct {
	Layout   Layout
	Settings Settings
	Env      Env
	// Sources lists the settings files that were read, in load order.
	Sources []string
}

// Load resolves the workspace root, reads cli.toml then user-cli.toml
// (each optional) and applies environment overrides.
func Load() (*Config, error) {
	var env Env
	if err := envconfig.Process("sp", &env); err != nil {
		return nil, fmt.Errorf("reading SP_* environment: %w", err)
	}

	cfg := &Config{
		Layout:   Resolve(homeFrom(env.Home)),
		Settings: defaultSettings(),
		Env:      env,
	}

	for _, path := range []string{cfg.Layout.DefaultCLIConfig, cfg.Layout.UserCLIConfig} {
		loaded, err := decodeFile(path, &cfg.Settings)
		if err != nil {
			return nil, err
		}
		if loaded {
			cfg.Sources = append(cfg.Sources, path)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadProject reads the project user-cli.toml on top of base settings.
func LoadProject(base *Config, l Layout) (*Config, error) {
	cfg := &Config{
		Layout:   l,
		Settings: base.Settings,
		Env:      base.Env,
	}
	loaded, err := decodeFile(l.UserCLIConfig, &cfg.Settings)
	if err != nil {
		return nil, err
	}
	if loaded {
		cfg.Sources = append(cfg.Sources, l.UserCLIConfig)
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// decodeFile merges path into s. Keys absent from the file keep their
// current values. A missing file is not an error.
func decodeFile(path string, s *Settings) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

func defaultSettings() Settings {
	return Settings{
		PythonVersion: DefaultPythonVersion,
		Library:       DefaultLibrary,
		KernelName:    DefaultKernelName,
		Port:          DefaultPort,
		Timeouts: TimeoutSettings{
			ToolInstall: Duration{5 * time.Minute},
			Interpreter: Duration{10 * time.Minute},
			Packages:    Duration{15 * time.Minute},
		},
		Log: LogSettings{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

func (c *Config) applyDefaults() {
	d := defaultSettings()
	s := &c.Settings
	if s.PythonVersion == "" {
		s.PythonVersion = d.PythonVersion
	}
	if s.Library == "" {
		s.Library = d.Library
	}
	if s.KernelName == "" {
		s.KernelName = d.KernelName
	}
	if s.Port <= 0 {
		s.Port = d.Port
	}
	if s.Timeouts.ToolInstall.Duration <= 0 {
		s.Timeouts.ToolInstall = d.Timeouts.ToolInstall
	}
	if s.Timeouts.Interpreter.Duration <= 0 {
		s.Timeouts.Interpreter = d.Timeouts.Interpreter
	}
	if s.Timeouts.Packages.Duration <= 0 {
		s.Timeouts.Packages = d.Timeouts.Packages
	}
	if s.Log.MaxSizeMB == 0 {
		s.Log.MaxSizeMB = d.Log.MaxSizeMB
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = d.Log.MaxBackups
	}
	if s.Log.MaxAgeDays == 0 {
		s.Log.MaxAgeDays = d.Log.MaxAgeDays
	}
}

func (c *Config) applyEnvOverrides() {
	if c.Env.PythonVersion != "" {
		c.Settings.PythonVersion = c.Env.PythonVersion
	}
	if c.Env.Library != "" {
		c.Settings.Library = c.Env.Library
	}
	if c.Env.LogDebug {
		c.Settings.Log.Debug = true
	}
	if c.Env.NoNotify {
		off := false
		c.Settings.Notify = &off
	}
}

// DefaultConfig returns configuration with defaults when Load fails.
// The workspace root still honors SP_HOME, read directly so a malformed
// settings file or another bad SP_* value cannot redirect it.
func DefaultConfig() Config {
	cfg, err := Load()
	if err != nil || cfg == nil {
		home := homeFrom(os.Getenv("SP_HOME"))
		return Config{
			Layout:   Resolve(home),
			Settings: defaultSettings(),
			Env:      Env{Home: os.Getenv("SP_HOME")},
		}
	}
	return *cfg
}

func homeFrom(override string) string {
	if override == "" {
		return DefaultHome()
	}
	return override
}

// CoreSettings is written to defaults/sp-core.toml. It tells the product
// library which workspace directories its agent may touch.
type CoreSettings struct {
	Agent AgentPaths `toml:"agent"`
}

// AgentPaths are relative to the workspace root.
type AgentPaths struct {
	Accessible   []string `toml:"accessible"`
	ReadOnly     []string `toml:"read_only"`
	Inaccessible []string `toml:"inaccessible"`
}

// CoreSettings derives the agent containment lists from the layout.
func (l Layout) CoreSettings() CoreSettings {
	rel := func(paths []string) []string {
		out := make([]string, 0, len(paths))
		for _, p := range paths {
			if r, err := filepath.Rel(l.Home, p); err == nil {
				out = append(out, filepath.ToSlash(r))
			}
		}
		return out
	}
	return CoreSettings{Agent: AgentPaths{
		Accessible:   rel(l.AgentAccessible()),
		ReadOnly:     rel(l.AgentReadOnly()),
		Inaccessible: rel(l.AgentInaccessible()),
	}}
}

// EncodeCoreSettings writes c as TOML.
func EncodeCoreSettings(w io.Writer, c CoreSettings) error {
	if _, err := io.WriteString(w, "# Generated by sp. Overrides go in ../user-sp-core.toml.\n"); err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(c)
}

// CLIDefaultsTOML is written to defaults/cli.toml by init and refreshed
// on repair. Users override keys in user-cli.toml.
const CLIDefaultsTOML = `# SignalPilot CLI defaults. Do not edit; put overrides in ../user-cli.toml.
python_version = "3.12"
library = "signalpilot-ai"
kernel_name = "signalpilot"
port = 8888
notify = true

[timeouts]
tool_install = "5m"
interpreter = "10m"
packages = "15m"

[log]
max_size_mb = 10
max_backups = 3
max_age_days = 28
compress = true
debug = false
`

// UserCLITemplate is the commented template for user-cli.toml.
const UserCLITemplate = `# SignalPilot CLI user settings. Keys here override defaults/cli.toml.
# library = "signalpilot-ai"
# python_version = "3.12"
# port = 8888
`

// JupyterDefaultsPy is written to defaults/jupyter_server_config.py.
const JupyterDefaultsPy = `# SignalPilot Jupyter server defaults.
c = get_config()  # noqa
c.ServerApp.open_browser = True
c.LabApp.news_url = None
c.LabApp.check_for_updates_class = "jupyterlab.NeverCheckForUpdate"
`

// UserJupyterTemplate is the template for the user override file.
const UserJupyterTemplate = `# SignalPilot Jupyter server overrides. Loaded after defaults.
c = get_config()  # noqa
`
