// Package workspace provisions a SignalPilot workspace: directories,
// the Python environment, packages, config files, the team repository
// and the notebook kernel.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/jupyter"
	"github.com/signalpilot-labs/sp-cli/internal/logging"
)

// Toolchain is the subset of the uv gateway the initializer drives.
type Toolchain interface {
	EnsureTool(ctx context.Context) error
	InstallInterpreter(ctx context.Context, version string) error
	CreateEnvironment(ctx context.Context, path, version string) error
	InstallPackages(ctx context.Context, pkgs []string, envPath string) error
}

// KernelRegistrar registers notebook kernels.
type KernelRegistrar interface {
	Register(spec jupyter.KernelSpec) error
}

// Warmer pre-starts the notebook server once.
type Warmer interface {
	Warmup(ctx context.Context) (jupyter.WarmupResult, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(title, description string) bool
}

// Progress reports numbered steps. Step runs fn and returns its error.
type Progress interface {
	Step(n, total int, title string, fn func() error) error
}

type quietProgress struct{}

func (quietProgress) Step(_, _ int, _ string, fn func() error) error { return fn() }

// Options configures Init.
type Options struct {
	Python     string
	Minimal    bool // skip the extras tier
	SkipWarmup bool
	NoKernel   bool
	Library    string
	KernelName string
	// Version is the CLI version written to version.toml.
	Version string
}

func (o Options) withDefaults() Options {
	if o.Python == "" {
		o.Python = config.DefaultPythonVersion
	}
	if o.Library == "" {
		o.Library = config.DefaultLibrary
	}
	if o.KernelName == "" {
		o.KernelName = config.DefaultKernelName
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	return o
}

// Result summarizes what Init did.
type Result struct {
	Layout             config.Layout
	AlreadyInitialized bool

	Python       string
	Packages     []string
	Kernel       string
	Migrations   []string
	CreatedFiles []string
	TeamRepo     bool

	Warmup    *jupyter.WarmupResult
	WarmupErr error

	// Warnings collects best-effort steps that failed.
	Warnings []string
}

// Initializer provisions one layout.
type Initializer struct {
	Layout   config.Layout
	Tool     Toolchain
	Kernels  KernelRegistrar
	Warmer   Warmer
	Progress Progress
}

func (in *Initializer) progress() Progress {
	if in.Progress == nil {
		return quietProgress{}
	}
	return in.Progress
}

// stepper numbers steps and logs each one.
type stepper struct {
	p     Progress
	n     int
	total int
}

func (s *stepper) run(title string, fn func() error) error {
	s.n++
	done := logging.Get().Step(title)
	err := s.p.Step(s.n, s.total, title, fn)
	done(err)
	return err
}

// Init provisions the global workspace. It is a no-op when the layout
// is already initialized. The first failing required step aborts;
// partially installed state is left for `install --repair`.
func (in *Initializer) Init(ctx context.Context, opts Options) (Result, error) {
	l := in.Layout
	res := Result{Layout: l}
	if l.IsInitialized() {
		res.AlreadyInitialized = true
		return res, nil
	}

	opts = opts.withDefaults()
	manifest := DefaultManifest(opts.Library)
	if err := manifest.Validate(); err != nil {
		return res, err
	}
	res.Python = opts.Python
	res.Packages = manifest.Packages(!opts.Minimal)

	total := 8
	if !opts.NoKernel {
		total++
	}
	if !opts.SkipWarmup && in.Warmer != nil {
		total++
	}
	st := &stepper{p: in.progress(), total: total}

	if err := st.run("Creating workspace directories", func() error {
		if err := ensureDirectories(l); err != nil {
			return err
		}
		applied, err := runMigrations(l)
		res.Migrations = applied
		return err
	}); err != nil {
		return res, err
	}

	if err := in.provision(ctx, st, opts.Python, res.Packages); err != nil {
		return res, err
	}

	if err := st.run("Writing configuration files", func() error {
		created, err := writePlaceholders(l, false)
		res.CreatedFiles = created
		return err
	}); err != nil {
		return res, err
	}

	_ = st.run("Initializing team workspace repository", func() error {
		created, err := initTeamRepo(l.TeamWorkspace)
		res.TeamRepo = created
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("team workspace git init: %v", err))
		}
		return nil
	})

	if !opts.NoKernel {
		if err := st.run("Registering Jupyter kernel", func() error {
			return in.Kernels.Register(jupyter.NewKernelSpec(opts.KernelName, l.VenvPython(), opts.Python))
		}); err != nil {
			return res, fmt.Errorf("register kernel: %w", err)
		}
		res.Kernel = opts.KernelName
	}

	if !opts.SkipWarmup && in.Warmer != nil {
		_ = st.run("Warming up Jupyter (first launch will be faster)", func() error {
			w, err := in.Warmer.Warmup(ctx)
			res.Warmup = &w
			res.WarmupErr = err
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("warmup: %v", err))
			}
			return nil
		})
	}

	if err := st.run("Recording installed version", func() error {
		return WriteVersion(l.VersionFile, VersionInfo{
			Version:     opts.Version,
			Python:      opts.Python,
			Library:     opts.Library,
			InstalledAt: time.Now().UTC().Truncate(time.Second),
		})
	}); err != nil {
		return res, err
	}

	return res, nil
}

// provision runs the four required package-manager steps in order.
func (in *Initializer) provision(ctx context.Context, st *stepper, python string, pkgs []string) error {
	l := in.Layout
	if err := st.run("Checking uv", func() error {
		return in.Tool.EnsureTool(ctx)
	}); err != nil {
		return err
	}
	if err := st.run("Installing Python "+python, func() error {
		return in.Tool.InstallInterpreter(ctx, python)
	}); err != nil {
		return err
	}
	if err := st.run("Creating environment", func() error {
		return in.Tool.CreateEnvironment(ctx, l.Venv, python)
	}); err != nil {
		return err
	}
	return st.run(fmt.Sprintf("Installing %d packages", len(pkgs)), func() error {
		return in.Tool.InstallPackages(ctx, pkgs, l.Venv)
	})
}

// InitProject provisions a project workspace in l.Home (init --local).
// It is a no-op when .signalpilot and .venv already exist.
func (in *Initializer) InitProject(ctx context.Context, opts Options) (Result, error) {
	l := in.Layout
	res := Result{Layout: l}
	if _, ok := config.DetectProject(l.Home); ok {
		res.AlreadyInitialized = true
		return res, nil
	}

	opts = opts.withDefaults()
	manifest := DefaultManifest(opts.Library)
	res.Python = opts.Python
	res.Packages = manifest.Core

	st := &stepper{p: in.progress(), total: 6}
	if err := st.run("Creating project directories", func() error {
		return ensureDirectories(l)
	}); err != nil {
		return res, err
	}
	if err := in.provision(ctx, st, opts.Python, manifest.Core); err != nil {
		return res, err
	}
	if err := st.run("Writing project files", func() error {
		var created []string
		files := []placeholder{
			{path: l.UserSkillRegistry, content: []byte(skillRegistryContent), mode: 0644},
			{path: l.UserCLIConfig, content: []byte(config.UserCLITemplate), mode: 0644},
			{path: l.Pyproject, content: []byte(projectPyproject(filepath.Base(l.Home), opts.Python)), mode: 0644},
		}
		for _, f := range files {
			ok, err := writeIfAbsent(f.path, f.content, f.mode)
			if err != nil {
				return fmt.Errorf("write %s: %w", f.path, err)
			}
			if ok {
				created = append(created, f.path)
			}
		}
		res.CreatedFiles = created
		return nil
	}); err != nil {
		return res, err
	}
	return res, nil
}

func projectPyproject(name, python string) string {
	return fmt.Sprintf(`[project]
name = %q
version = "0.1.0"
requires-python = ">=%s"
dependencies = []
`, name, python)
}

// RepairOptions configures Repair.
type RepairOptions struct {
	Python     string
	Library    string
	KernelName string
	Version    string
}

// Repair reinstalls what init installs without touching user content:
// the environment is recreated only if unusable, and the core tier and
// product library are always reinstalled.
func (in *Initializer) Repair(ctx context.Context, opts RepairOptions) (Result, error) {
	l := in.Layout
	res := Result{Layout: l}
	if info, err := os.Stat(l.Home); err != nil || !info.IsDir() {
		return res, fmt.Errorf("workspace %s does not exist; run `sp init`", l.Home)
	}

	o := Options{Python: opts.Python, Library: opts.Library, KernelName: opts.KernelName, Version: opts.Version}.withDefaults()
	manifest := DefaultManifest(o.Library)
	if err := manifest.Validate(); err != nil {
		return res, err
	}
	pkgs := append(append([]string{}, manifest.Core...), manifest.Product...)
	res.Python = o.Python
	res.Packages = pkgs

	rebuild := !l.EnvironmentUsable()
	total := 3
	if rebuild {
		total += 2
	}
	if in.Kernels != nil {
		total++
	}
	st := &stepper{p: in.progress(), total: total}

	if err := st.run("Checking uv", func() error {
		return in.Tool.EnsureTool(ctx)
	}); err != nil {
		return res, err
	}
	if rebuild {
		if err := st.run("Installing Python "+o.Python, func() error {
			return in.Tool.InstallInterpreter(ctx, o.Python)
		}); err != nil {
			return res, err
		}
		if err := st.run("Recreating environment", func() error {
			return in.Tool.CreateEnvironment(ctx, l.Venv, o.Python)
		}); err != nil {
			return res, err
		}
	}
	if err := st.run(fmt.Sprintf("Reinstalling %d packages", len(pkgs)), func() error {
		return in.Tool.InstallPackages(ctx, pkgs, l.Venv)
	}); err != nil {
		return res, err
	}
	if err := st.run("Restoring directories and configuration", func() error {
		if err := ensureDirectories(l); err != nil {
			return err
		}
		created, err := writePlaceholders(l, true)
		res.CreatedFiles = created
		if err != nil {
			return err
		}
		if _, err := os.Stat(l.VersionFile); l.VersionFile != "" && os.IsNotExist(err) {
			return WriteVersion(l.VersionFile, VersionInfo{
				Version:     o.Version,
				Python:      o.Python,
				Library:     o.Library,
				InstalledAt: time.Now().UTC().Truncate(time.Second),
			})
		}
		return nil
	}); err != nil {
		return res, err
	}
	if in.Kernels != nil {
		kernel := o.KernelName
		if err := st.run("Registering Jupyter kernel", func() error {
			return in.Kernels.Register(jupyter.NewKernelSpec(kernel, l.VenvPython(), o.Python))
		}); err != nil {
			return res, fmt.Errorf("register kernel: %w", err)
		}
		res.Kernel = kernel
	}
	return res, nil
}

// ForceReset removes the config, environment and system directories
// after confirmation. Workspaces, connections, skills and rules are
// never touched. Declining removes nothing.
func (in *Initializer) ForceReset(c Confirmer) ([]string, error) {
	var targets []string
	for _, d := range in.Layout.SystemDirectories() {
		if _, err := os.Lstat(d); err == nil {
			targets = append(targets, d)
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	desc := "This removes:\n"
	for _, t := range targets {
		desc += "  " + t + "\n"
	}
	desc += "Your notebooks, connections, skills and rules are kept."
	if !c.Confirm("Reset SignalPilot system files?", desc) {
		return nil, ErrResetDeclined
	}

	var removed []string
	for _, t := range targets {
		logging.Get().Info("removing", "path", t)
		if err := os.RemoveAll(t); err != nil {
			return removed, fmt.Errorf("remove %s: %w", t, err)
		}
		removed = append(removed, t)
	}
	return removed, nil
}

// ErrResetDeclined is returned when the user declines a forced reset.
var ErrResetDeclined = errors.New("reset cancelled")
