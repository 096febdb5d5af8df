// Package status reports the installation state of a SignalPilot
// workspace and renders it as health checks.
package status

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/jupyter"
	"github.com/signalpilot-labs/sp-cli/internal/platform"
	"github.com/signalpilot-labs/sp-cli/internal/uv"
	"github.com/signalpilot-labs/sp-cli/internal/workspace"
)

// InstallationStatus is a point-in-time view of the workspace. It is
// recomputed on every Report call.
type InstallationStatus struct {
	Platform string `json:"platform"`
	Mode     string `json:"mode"`
	Home     string `json:"home"`

	HomeExists    bool   `json:"home_exists"`
	ToolAvailable bool   `json:"uv_available"`
	ToolPath      string `json:"uv_path"`

	EnvPath       string                 `json:"env_path"`
	EnvUsable     bool                   `json:"env_usable"`
	PythonVersion uv.Query[string]       `json:"python_version"`
	Packages      uv.Query[[]uv.Package] `json:"packages"`

	Library        string `json:"library"`
	LibraryVersion string `json:"library_version,omitempty"`

	Kernels     []string     `json:"kernels"`
	// KernelStale is set when the configured kernel launches an
	// interpreter other than the environment's.
	KernelStale bool         `json:"kernel_stale,omitempty"`
	Servers     map[int]bool `json:"servers"`

	TeamRepo         bool     `json:"team_repo"`
	InstalledVersion string   `json:"installed_version,omitempty"`
	Migrations       []string `json:"migrations,omitempty"`
}

// Tool is the subset of the uv gateway the reporter queries.
type Tool interface {
	IsToolAvailable() bool
	ResolveToolPath() string
	ListInstalledPackages(ctx context.Context, envPath string) uv.Query[[]uv.Package]
	QueryInterpreterVersion(ctx context.Context, envPath string) uv.Query[string]
}

// ServerProbe checks for a running notebook server.
type ServerProbe interface {
	IsRunning(ctx context.Context, port int) bool
}

// Reporter gathers InstallationStatus. Each query is independent and
// falls back to a default; Report never fails.
type Reporter struct {
	Layout     config.Layout
	Library    string
	KernelName string
	Ports      []int
	Tool       Tool
	Probe      ServerProbe
}

// Report inspects the workspace.
func (r *Reporter) Report(ctx context.Context) InstallationStatus {
	l := r.Layout
	s := InstallationStatus{
		Platform:      platform.Detect().String(),
		Mode:          l.Mode.String(),
		Home:          l.Home,
		EnvPath:       l.Venv,
		Library:       r.Library,
		PythonVersion: uv.Unanswered[string](),
		Packages:      uv.Unanswered[[]uv.Package](),
		Kernels:       []string{},
		Servers:       make(map[int]bool),
	}

	if info, err := os.Stat(l.Home); err == nil && info.IsDir() {
		s.HomeExists = true
	}
	if r.Tool != nil {
		s.ToolAvailable = r.Tool.IsToolAvailable()
		s.ToolPath = r.Tool.ResolveToolPath()
	}

	s.EnvUsable = l.EnvironmentUsable()
	if s.EnvUsable && r.Tool != nil {
		s.PythonVersion = r.Tool.QueryInterpreterVersion(ctx, l.Venv)
		s.Packages = r.Tool.ListInstalledPackages(ctx, l.Venv)
	}
	if s.Packages.OK() && r.Library != "" {
		want := uv.NormalizeName(r.Library)
		for _, p := range s.Packages.Value {
			if p.Name == want {
				s.LibraryVersion = p.Version
			}
		}
	}

	if l.Kernels != "" {
		reg := jupyter.KernelRegistry{Dir: l.Kernels}
		if names, err := reg.List(); err == nil && names != nil {
			s.Kernels = names
		}
		if r.KernelName != "" {
			if spec, err := reg.Load(r.KernelName); err == nil && len(spec.Argv) > 0 {
				s.KernelStale = filepath.Clean(spec.Argv[0]) != filepath.Clean(l.VenvPython())
			}
		}
	}

	if r.Probe != nil {
		for _, port := range r.ports() {
			s.Servers[port] = r.Probe.IsRunning(ctx, port)
		}
	}

	if l.TeamWorkspace != "" {
		if _, err := git.PlainOpen(l.TeamWorkspace); err == nil {
			s.TeamRepo = true
		}
	}

	if l.VersionFile != "" {
		if v, err := workspace.ReadVersion(l.VersionFile); err == nil {
			s.InstalledVersion = v.Version
		} else if !errors.Is(err, os.ErrNotExist) {
			s.InstalledVersion = "unreadable"
		}
	}
	s.Migrations = workspace.AppliedMigrations(l)

	return s
}

// ports returns the default port plus configured ones, deduplicated.
func (r *Reporter) ports() []int {
	seen := map[int]bool{jupyter.DefaultPort: true}
	out := []int{jupyter.DefaultPort}
	for _, p := range r.Ports {
		if p > 0 && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// RunningPorts lists ports with a live server, ascending.
func (s InstallationStatus) RunningPorts() []int {
	var out []int
	for port, up := range s.Servers {
		if up {
			out = append(out, port)
		}
	}
	sort.Ints(out)
	return out
}
