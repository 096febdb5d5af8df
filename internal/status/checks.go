package status

import (
	"fmt"
	"strings"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/uv"
	"github.com/signalpilot-labs/sp-cli/internal/workspace"
)

// CheckStatus represents the result of a health check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
	StatusSkip
)

func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "!"
	case StatusFail:
		return "✗"
	case StatusSkip:
		return "-"
	default:
		return "?"
	}
}

// MarshalText renders the status as a word for JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	switch s {
	case StatusPass:
		return []byte("pass"), nil
	case StatusWarn:
		return []byte("warn"), nil
	case StatusFail:
		return []byte("fail"), nil
	default:
		return []byte("skip"), nil
	}
}

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"` // Suggested fix command or action
}

// Report holds all check results.
type Report struct {
	Results []CheckResult
}

// Summary returns pass/warn/fail counts.
func (r *Report) Summary() (pass, warn, fail int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}
	return
}

// HasFailures returns true if any check failed.
func (r *Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return true
		}
	}
	return false
}

// Checks turns a status into health checks.
func Checks(s InstallationStatus, kernelName string) *Report {
	r := &Report{}
	r.Results = append(r.Results, checkHome(s))
	r.Results = append(r.Results, checkTool(s))
	r.Results = append(r.Results, checkEnvironment(s))
	r.Results = append(r.Results, checkCorePackages(s))
	r.Results = append(r.Results, checkLibrary(s))
	if s.Mode == config.ModeGlobal.String() {
		r.Results = append(r.Results, checkKernel(s, kernelName))
		r.Results = append(r.Results, checkTeamRepo(s))
	}
	r.Results = append(r.Results, checkServers(s))
	return r
}

func checkHome(s InstallationStatus) CheckResult {
	result := CheckResult{Name: "Workspace"}
	if !s.HomeExists {
		result.Status = StatusFail
		result.Message = s.Home + " does not exist"
		result.Fix = "sp init"
		return result
	}
	result.Status = StatusPass
	result.Message = s.Home
	if s.InstalledVersion != "" {
		result.Message += " (installed by sp " + s.InstalledVersion + ")"
	}
	return result
}

func checkTool(s InstallationStatus) CheckResult {
	result := CheckResult{Name: "uv"}
	if !s.ToolAvailable {
		result.Status = StatusWarn
		result.Message = "uv not found in PATH"
		result.Fix = "sp init installs it, or see " + uv.ManualInstallURL
		return result
	}
	result.Status = StatusPass
	result.Message = s.ToolPath
	return result
}

func checkEnvironment(s InstallationStatus) CheckResult {
	result := CheckResult{Name: "Python environment"}
	if !s.EnvUsable {
		result.Status = StatusFail
		result.Message = s.EnvPath + " is missing or has no interpreter"
		result.Fix = "sp install --repair"
		if !s.HomeExists {
			result.Fix = "sp init"
		}
		return result
	}
	result.Status = StatusPass
	result.Message = "Python " + s.PythonVersion.ValueOr("(version unknown)")
	return result
}

func checkCorePackages(s InstallationStatus) CheckResult {
	result := CheckResult{Name: "Core packages"}
	switch s.Packages.State {
	case uv.Unknown:
		result.Status = StatusSkip
		result.Message = "could not list installed packages"
		return result
	case uv.Empty:
		result.Status = StatusFail
		result.Message = "environment has no packages"
		result.Fix = "sp install --repair"
		return result
	}

	installed := make(map[string]bool, len(s.Packages.Value))
	for _, p := range s.Packages.Value {
		installed[p.Name] = true
	}
	var missing []string
	for _, p := range workspace.DefaultManifest(s.Library).Core {
		if !installed[uv.NormalizeName(p)] {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		result.Status = StatusFail
		result.Message = "missing: " + strings.Join(missing, ", ")
		result.Fix = "sp install --repair"
		return result
	}
	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d packages installed", len(s.Packages.Value))
	return result
}

func checkLibrary(s InstallationStatus) CheckResult {
	result := CheckResult{Name: "SignalPilot library"}
	if !s.Packages.OK() {
		result.Status = StatusSkip
		result.Message = "package list unavailable"
		return result
	}
	if s.LibraryVersion == "" {
		result.Status = StatusWarn
		result.Message = s.Library + " not installed"
		result.Fix = "sp install --repair"
		return result
	}
	result.Status = StatusPass
	result.Message = s.Library + " " + s.LibraryVersion
	return result
}

func checkKernel(s InstallationStatus, name string) CheckResult {
	result := CheckResult{Name: "Jupyter kernel"}
	for _, k := range s.Kernels {
		if k != name {
			continue
		}
		if s.KernelStale {
			result.Status = StatusWarn
			result.Message = name + " points at another interpreter"
			result.Fix = "sp install --repair"
			return result
		}
		result.Status = StatusPass
		result.Message = name
		return result
	}
	result.Status = StatusWarn
	result.Message = name + " not registered"
	result.Fix = "sp install --repair"
	return result
}

func checkTeamRepo(s InstallationStatus) CheckResult {
	result := CheckResult{Name: "Team workspace"}
	if !s.TeamRepo {
		result.Status = StatusWarn
		result.Message = "not a git repository"
		result.Fix = "git init team-workspace"
		return result
	}
	result.Status = StatusPass
	result.Message = "git repository"
	return result
}

func checkServers(s InstallationStatus) CheckResult {
	result := CheckResult{Name: "Jupyter server"}
	running := s.RunningPorts()
	if len(running) == 0 {
		result.Status = StatusSkip
		result.Message = "not running"
		return result
	}
	ports := make([]string, len(running))
	for i, p := range running {
		ports[i] = fmt.Sprintf(":%d", p)
	}
	result.Status = StatusPass
	result.Message = "running on " + strings.Join(ports, ", ")
	return result
}
