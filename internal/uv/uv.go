// Package uv drives the uv package manager: installing it, installing
// Python interpreters, creating virtual environments and installing
// packages into them. Every invocation goes through a Runner.
package uv

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/signalpilot-labs/sp-cli/internal/platform"
)

// InstallScriptURL is the official uv installer.
const InstallScriptURL = "https://astral.sh/uv/install.sh"

// Timeouts bound the network-bound operations. Zero means no limit.
type Timeouts struct {
	ToolInstall time.Duration
	Interpreter time.Duration
	Packages    time.Duration
}

// Environment describes a virtual environment.
type Environment struct {
	Path          string
	PythonVersion string
}

// Python returns the environment's interpreter path.
func (e Environment) Python() string {
	return filepath.Join(e.Path, platform.VenvBinDir(), platform.Executable("python"))
}

// Usable reports whether the interpreter exists.
func (e Environment) Usable() bool {
	_, err := os.Stat(e.Python())
	return err == nil
}

// Package is one line of `uv pip list --format freeze`.
type Package struct {
	Name    string
	Version string
}

// Gateway wraps every uv invocation.
type Gateway struct {
	runner   Runner
	timeouts Timeouts

	lookPath func(string) (string, error)
	userHome string
}

// New creates a Gateway. A nil runner uses ExecRunner.
func New(r Runner, t Timeouts) *Gateway {
	if r == nil {
		r = ExecRunner{}
	}
	home, _ := os.UserHomeDir()
	return &Gateway{
		runner:   r,
		timeouts: t,
		lookPath: exec.LookPath,
		userHome: home,
	}
}

// IsToolAvailable reports whether uv is on PATH.
func (g *Gateway) IsToolAvailable() bool {
	_, err := g.lookPath("uv")
	return err == nil
}

// fallbackPaths are where the installer puts uv when PATH has not been
// refreshed yet.
func (g *Gateway) fallbackPaths(name string) []string {
	if g.userHome == "" {
		return nil
	}
	exe := platform.Executable(name)
	return []string{
		filepath.Join(g.userHome, ".local", "bin", exe),
		filepath.Join(g.userHome, ".cargo", "bin", exe),
	}
}

func (g *Gateway) resolve(name string) (string, bool) {
	if p, err := g.lookPath(name); err == nil {
		return p, true
	}
	for _, p := range g.fallbackPaths(name) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return name, false
}

// ResolveToolPath returns the uv binary to invoke: PATH first, then the
// installer's locations, then bare "uv".
func (g *Gateway) ResolveToolPath() string {
	p, _ := g.resolve("uv")
	return p
}

// ResolveUVXPath returns the uvx binary, looked up like uv.
func (g *Gateway) ResolveUVXPath() string {
	p, _ := g.resolve("uvx")
	return p
}

// InstallTool runs the official installer script.
func (g *Gateway) InstallTool(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, g.timeouts.ToolInstall)
	defer cancel()

	res, err := g.runner.Run(ctx, Command{
		Name: "sh",
		Args: []string{"-c", "curl -LsSf " + InstallScriptURL + " | sh"},
	})
	if err != nil {
		return &ToolInstallError{Stderr: string(res.Stderr), Err: err}
	}
	return nil
}

// EnsureTool installs uv when it cannot be found.
func (g *Gateway) EnsureTool(ctx context.Context) error {
	if _, ok := g.resolve("uv"); ok {
		return nil
	}
	if !platform.SupportsShellInstaller() {
		return &ToolUnavailableError{}
	}
	if err := g.InstallTool(ctx); err != nil {
		return &ToolUnavailableError{Cause: err}
	}
	if _, ok := g.resolve("uv"); !ok {
		return &ToolUnavailableError{Cause: errNotOnPath}
	}
	return nil
}

// InstallInterpreter installs a managed Python interpreter.
func (g *Gateway) InstallInterpreter(ctx context.Context, version string) error {
	ctx, cancel := withTimeout(ctx, g.timeouts.Interpreter)
	defer cancel()

	res, err := g.run(ctx, "python", "install", version)
	if err != nil {
		return &InterpreterInstallError{Version: version, Stderr: string(res.Stderr), Err: err}
	}
	return nil
}

// CreateEnvironment creates (or recreates) a venv at path.
func (g *Gateway) CreateEnvironment(ctx context.Context, path, version string) error {
	res, err := g.run(ctx, "venv", path, "--python", version)
	if err != nil {
		return &EnvironmentCreateError{Path: path, Stderr: string(res.Stderr), Err: err}
	}
	return nil
}

// InstallPackages installs pkgs into the venv at envPath in one uv call.
// An empty list is a no-op.
func (g *Gateway) InstallPackages(ctx context.Context, pkgs []string, envPath string) error {
	if len(pkgs) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx, g.timeouts.Packages)
	defer cancel()

	args := append([]string{"pip", "install", "--python", envPath}, pkgs...)
	res, err := g.run(ctx, args...)
	if err != nil {
		return &PackageInstallError{Packages: pkgs, Stderr: string(res.Stderr), Err: err}
	}
	return nil
}

// UpgradePackage upgrades one requirement (e.g. "pkg==1.2.3") in the venv.
func (g *Gateway) UpgradePackage(ctx context.Context, requirement, envPath string) error {
	res, err := g.run(ctx, "pip", "install", "--upgrade", requirement, "--python", envPath)
	if err != nil {
		return &PackageInstallError{Packages: []string{requirement}, Stderr: string(res.Stderr), Err: err}
	}
	return nil
}

// RunUVX runs uvx with args and returns its stdout.
func (g *Gateway) RunUVX(ctx context.Context, args ...string) (Result, error) {
	return g.runner.Run(ctx, Command{Name: g.ResolveUVXPath(), Args: args})
}

// ListInstalledPackages lists the venv's packages. Any failure yields
// an Unknown query.
func (g *Gateway) ListInstalledPackages(ctx context.Context, envPath string) Query[[]Package] {
	if _, ok := g.resolve("uv"); !ok {
		return Unanswered[[]Package]()
	}
	res, err := g.run(ctx, "pip", "list", "--python", envPath, "--format", "freeze")
	if err != nil {
		return Unanswered[[]Package]()
	}
	pkgs := ParseFreeze(res.Stdout)
	if len(pkgs) == 0 {
		return None[[]Package]()
	}
	return Known(pkgs)
}

// QueryInterpreterVersion runs the venv interpreter with --version.
func (g *Gateway) QueryInterpreterVersion(ctx context.Context, envPath string) Query[string] {
	env := Environment{Path: envPath}
	if !env.Usable() {
		return Unanswered[string]()
	}
	res, err := g.runner.Run(ctx, Command{Name: env.Python(), Args: []string{"--version"}})
	if err != nil {
		return Unanswered[string]()
	}
	out := bytes.TrimSpace(res.Stdout)
	if len(out) == 0 {
		out = bytes.TrimSpace(res.Stderr)
	}
	v := strings.TrimSpace(strings.TrimPrefix(string(out), "Python "))
	if v == "" {
		return Unanswered[string]()
	}
	return Known(v)
}

func (g *Gateway) run(ctx context.Context, args ...string) (Result, error) {
	return g.runner.Run(ctx, Command{Name: g.ResolveToolPath(), Args: args})
}

// ParseFreeze parses `name==version` lines. Names are normalized to
// lower case with dashes; direct references ("name @ url") keep an
// empty version.
func ParseFreeze(out []byte) []Package {
	var pkgs []Package
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-e ") {
			continue
		}
		var name, version string
		if i := strings.Index(line, "=="); i > 0 {
			name, version = line[:i], line[i+2:]
		} else if i := strings.Index(line, " @ "); i > 0 {
			name = line[:i]
		} else {
			continue
		}
		pkgs = append(pkgs, Package{Name: NormalizeName(name), Version: strings.TrimSpace(version)})
	}
	return pkgs
}

// NormalizeName folds a distribution name for comparison.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", ".", "-").Replace(name)
}

// RunningInEphemeralContext reports whether this process was started by
// uvx (a throwaway environment) rather than a persistent install.
func RunningInEphemeralContext() bool {
	if os.Getenv("UV_PROJECT_ENVIRONMENT") != "" {
		return true
	}
	venv := filepath.ToSlash(os.Getenv("VIRTUAL_ENV"))
	return strings.Contains(venv, ".cache/uv")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
