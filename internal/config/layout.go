package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/signalpilot-labs/sp-cli/internal/platform"
)

// HomeDirName is the directory created under the user's home directory.
const HomeDirName = "SignalPilotHome"

// Mode selects between the global workspace and a project workspace
// rooted at the current directory.
type Mode int

const (
	ModeGlobal Mode = iota
	ModeProject
)

func (m Mode) String() string {
	if m == ModeProject {
		return "project"
	}
	return "global"
}

// Layout holds every path of a SignalPilot workspace. All paths are
// derived from Home; constructing a Layout never touches the filesystem.
type Layout struct {
	Mode Mode
	Home string

	// Configuration: user overrides live directly in Config, shipped
	// defaults in ConfigDefaults (loaded first).
	Config               string // Home/.signalpilot
	ConfigDefaults       string // Config/defaults
	DefaultCLIConfig     string // ConfigDefaults/cli.toml
	DefaultCoreConfig    string // ConfigDefaults/sp-core.toml
	DefaultJupyterConfig string // ConfigDefaults/jupyter_server_config.py
	UserCLIConfig        string // Config/user-cli.toml
	UserCoreConfig       string // Config/user-sp-core.toml
	UserJupyterConfig    string // Config/jupyter_server_config.py

	DefaultSkills string
	DefaultRules  string

	// Connections hold credentials and are never agent-accessible.
	Connections         string
	ConnectionsDB       string
	ConnectionsMCP      string
	ConnectionsEnv      string
	ConnectionsFolders  string
	ConnectionsManifest string

	System         string
	VersionFile    string
	Logs           string
	Migrations     string
	JupyterData    string
	JupyterRuntime string
	Kernels        string

	Venv      string
	Pyproject string

	UserWorkspace     string
	UserDemo          string
	UserSkills        string
	UserRules         string
	UserSkillRegistry string

	TeamWorkspace     string
	TeamNotebooks     string
	TeamScripts       string
	TeamSkills        string
	TeamRules         string
	TeamSkillRegistry string
}

const skillRegistryName = "skill-upload-registry.json"

// DefaultHome returns ~/SignalPilotHome.
func DefaultHome() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, HomeDirName)
}

// Resolve returns the global workspace layout rooted at home.
func Resolve(home string) Layout {
	home = filepath.Clean(home)
	cfg := filepath.Join(home, ".signalpilot")
	defaults := filepath.Join(cfg, "defaults")
	connect := filepath.Join(home, "connect")
	folders := filepath.Join(connect, "folders")
	system := filepath.Join(home, "system")
	jupyter := filepath.Join(system, "jupyter")
	user := filepath.Join(home, "user-workspace")
	team := filepath.Join(home, "team-workspace")

	return Layout{
		Mode:                 ModeGlobal,
		Home:                 home,
		Config:               cfg,
		ConfigDefaults:       defaults,
		DefaultCLIConfig:     filepath.Join(defaults, "cli.toml"),
		DefaultCoreConfig:    filepath.Join(defaults, "sp-core.toml"),
		DefaultJupyterConfig: filepath.Join(defaults, "jupyter_server_config.py"),
		UserCLIConfig:        filepath.Join(cfg, "user-cli.toml"),
		UserCoreConfig:       filepath.Join(cfg, "user-sp-core.toml"),
		UserJupyterConfig:    filepath.Join(cfg, "jupyter_server_config.py"),

		DefaultSkills: filepath.Join(home, "default-skills"),
		DefaultRules:  filepath.Join(home, "default-rules"),

		Connections:         connect,
		ConnectionsDB:       filepath.Join(connect, "db.toml"),
		ConnectionsMCP:      filepath.Join(connect, "mcp.json"),
		ConnectionsEnv:      filepath.Join(connect, ".env"),
		ConnectionsFolders:  folders,
		ConnectionsManifest: filepath.Join(folders, "manifest.toml"),

		System:         system,
		VersionFile:    filepath.Join(system, "version.toml"),
		Logs:           filepath.Join(system, "logs"),
		Migrations:     filepath.Join(system, "migrations"),
		JupyterData:    jupyter,
		JupyterRuntime: filepath.Join(jupyter, "runtime"),
		Kernels:        filepath.Join(jupyter, "kernels"),

		Venv:      filepath.Join(home, ".venv"),
		Pyproject: filepath.Join(home, "pyproject.toml"),

		UserWorkspace:     user,
		UserDemo:          filepath.Join(user, "demo-project"),
		UserSkills:        filepath.Join(user, "skills"),
		UserRules:         filepath.Join(user, "rules"),
		UserSkillRegistry: filepath.Join(user, "skills", skillRegistryName),

		TeamWorkspace:     team,
		TeamNotebooks:     filepath.Join(team, "notebooks"),
		TeamScripts:       filepath.Join(team, "scripts"),
		TeamSkills:        filepath.Join(team, "skills"),
		TeamRules:         filepath.Join(team, "rules"),
		TeamSkillRegistry: filepath.Join(team, "skills", skillRegistryName),
	}
}

// ResolveProject returns the layout of a project workspace rooted at
// root. The project root itself is the notebook directory, so the
// user/team workspace roles and the system subtree are left empty.
func ResolveProject(root string) Layout {
	root = filepath.Clean(root)
	cfg := filepath.Join(root, ".signalpilot")
	return Layout{
		Mode:              ModeProject,
		Home:              root,
		Config:            cfg,
		UserCLIConfig:     filepath.Join(cfg, "user-cli.toml"),
		UserJupyterConfig: filepath.Join(cfg, "jupyter_server_config.py"),
		Venv:              filepath.Join(root, ".venv"),
		Pyproject:         filepath.Join(root, "pyproject.toml"),
		UserSkills:        filepath.Join(root, "skills"),
		UserRules:         filepath.Join(root, "rules"),
		UserSkillRegistry: filepath.Join(root, "skills", skillRegistryName),
	}
}

// DetectProject returns the project layout for dir when it contains
// both a .signalpilot directory and a .venv.
func DetectProject(dir string) (Layout, bool) {
	l := ResolveProject(dir)
	if isDir(l.Config) && isDir(l.Venv) {
		return l, true
	}
	return Layout{}, false
}

// Role names one path of the layout.
type Role struct {
	Name string
	Path string
}

// Roles returns every non-empty named path of the layout.
func (l Layout) Roles() []Role {
	all := []Role{
		{"home", l.Home},
		{"config", l.Config},
		{"config-defaults", l.ConfigDefaults},
		{"default-cli-config", l.DefaultCLIConfig},
		{"default-core-config", l.DefaultCoreConfig},
		{"default-jupyter-config", l.DefaultJupyterConfig},
		{"user-cli-config", l.UserCLIConfig},
		{"user-core-config", l.UserCoreConfig},
		{"user-jupyter-config", l.UserJupyterConfig},
		{"default-skills", l.DefaultSkills},
		{"default-rules", l.DefaultRules},
		{"connections", l.Connections},
		{"connections-db", l.ConnectionsDB},
		{"connections-mcp", l.ConnectionsMCP},
		{"connections-env", l.ConnectionsEnv},
		{"connections-folders", l.ConnectionsFolders},
		{"connections-manifest", l.ConnectionsManifest},
		{"system", l.System},
		{"version-file", l.VersionFile},
		{"logs", l.Logs},
		{"migrations", l.Migrations},
		{"jupyter-data", l.JupyterData},
		{"jupyter-runtime", l.JupyterRuntime},
		{"kernels", l.Kernels},
		{"venv", l.Venv},
		{"pyproject", l.Pyproject},
		{"user-workspace", l.UserWorkspace},
		{"user-demo", l.UserDemo},
		{"user-skills", l.UserSkills},
		{"user-rules", l.UserRules},
		{"user-skill-registry", l.UserSkillRegistry},
		{"team-workspace", l.TeamWorkspace},
		{"team-notebooks", l.TeamNotebooks},
		{"team-scripts", l.TeamScripts},
		{"team-skills", l.TeamSkills},
		{"team-rules", l.TeamRules},
		{"team-skill-registry", l.TeamSkillRegistry},
	}
	roles := all[:0]
	for _, r := range all {
		if r.Path != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// Directories returns the directories init creates, parents first.
// The venv is not included; the package manager creates it.
func (l Layout) Directories() []string {
	dirs := []string{
		l.Config,
		l.ConfigDefaults,
		l.DefaultSkills,
		l.DefaultRules,
		l.Connections,
		l.ConnectionsFolders,
		l.System,
		l.Logs,
		l.Migrations,
		l.JupyterData,
		l.JupyterRuntime,
		l.Kernels,
		l.UserWorkspace,
		l.UserDemo,
		l.UserSkills,
		l.UserRules,
		l.TeamWorkspace,
		l.TeamNotebooks,
		l.TeamScripts,
		l.TeamSkills,
		l.TeamRules,
	}
	out := dirs[:0]
	for _, d := range dirs {
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// SystemDirectories are removed by a forced reinstall. User content,
// connections and skills/rules are never part of this list.
func (l Layout) SystemDirectories() []string {
	var out []string
	for _, d := range []string{l.Config, l.Venv, l.System} {
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// VenvBin returns the path to an executable inside the venv.
func (l Layout) VenvBin(name string) string {
	return filepath.Join(l.Venv, platform.VenvBinDir(), platform.Executable(name))
}

// VenvPython returns the path to the venv interpreter.
func (l Layout) VenvPython() string {
	return l.VenvBin("python")
}

// KernelIconSource returns the python3 kernel spec ipykernel installs
// into the environment; its logos are copied into our kernel.
func (l Layout) KernelIconSource() string {
	return filepath.Join(l.Venv, "share", "jupyter", "kernels", "python3")
}

// EnvironmentUsable reports whether the venv interpreter exists.
func (l Layout) EnvironmentUsable() bool {
	_, err := os.Stat(l.VenvPython())
	return err == nil
}

// IsInitialized reports whether the workspace root exists and its
// environment is usable.
func (l Layout) IsInitialized() bool {
	return isDir(l.Home) && l.EnvironmentUsable()
}

// LabDir returns the directory the notebook server is started in.
func (l Layout) LabDir(team bool) string {
	if l.Mode == ModeProject {
		return l.Home
	}
	if team {
		return l.TeamWorkspace
	}
	return l.UserWorkspace
}

// JupyterEnv returns the variables that point the notebook server at
// this workspace. JUPYTER_CONFIG_PATH (defaults) is read before
// JUPYTER_CONFIG_DIR (user overrides).
func (l Layout) JupyterEnv() map[string]string {
	env := map[string]string{
		"JUPYTER_CONFIG_DIR": l.Config,
	}
	if l.ConfigDefaults != "" {
		env["JUPYTER_CONFIG_PATH"] = l.ConfigDefaults
	}
	if l.JupyterData != "" {
		env["JUPYTER_DATA_DIR"] = l.JupyterData
	}
	if l.JupyterRuntime != "" {
		env["JUPYTER_RUNTIME_DIR"] = l.JupyterRuntime
	}
	return env
}

// AgentAccessible lists directories automation may read and write.
func (l Layout) AgentAccessible() []string {
	return nonEmpty(l.UserWorkspace, l.TeamWorkspace)
}

// AgentReadOnly lists directories automation may only read.
func (l Layout) AgentReadOnly() []string {
	return nonEmpty(l.DefaultSkills, l.DefaultRules)
}

// AgentInaccessible lists directories automation must never touch.
func (l Layout) AgentInaccessible() []string {
	return nonEmpty(l.Connections, l.Config, l.System, l.Venv)
}

// IsAgentAccessible reports whether path lies inside an agent-accessible
// directory and outside every inaccessible one.
func (l Layout) IsAgentAccessible(path string) bool {
	for _, d := range l.AgentInaccessible() {
		if within(d, path) {
			return false
		}
	}
	for _, d := range l.AgentAccessible() {
		if within(d, path) {
			return true
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func nonEmpty(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
