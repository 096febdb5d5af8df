package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/jupyter"
	"github.com/signalpilot-labs/sp-cli/internal/ui"
	"github.com/signalpilot-labs/sp-cli/internal/workspace"
)

// stepProgress renders workspace steps as numbered spinner lines.
type stepProgress struct{}

func (stepProgress) Step(n, total int, title string, fn func() error) error {
	if !ui.IsTTY() {
		ui.Step(n, total, title)
		return fn()
	}
	line := ui.StepText(n, total, title)
	err := ui.Spin(line, fn)
	if err != nil {
		fmt.Println(line + " " + ui.ErrorText("✗"))
	} else {
		fmt.Println(line + " " + ui.SuccessText("✓"))
	}
	return err
}

func (a *App) InitCmd() *cobra.Command {
	var (
		opts  workspace.Options
		local bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the workspace, Python environment and Jupyter kernel",
		Long: `Create ~/SignalPilotHome (or $SP_HOME), install Python and the SignalPilot
packages with uv, and register the SignalPilot Jupyter kernel.

With --local, set up a project workspace in the current directory instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if local {
				return a.runInitProject(cmd.Context(), opts)
			}
			return a.runInit(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Python, "python", "", "Python version to install (default from settings)")
	f.BoolVar(&opts.Minimal, "minimal", false, "Install core packages only, without the extras")
	f.BoolVar(&opts.SkipWarmup, "skip-warmup", false, "Skip pre-starting Jupyter once")
	f.BoolVar(&opts.NoKernel, "no-kernel", false, "Do not register the Jupyter kernel")
	f.BoolVar(&local, "local", false, "Initialize a project workspace in the current directory")
	return cmd
}

func (a *App) initOptions(opts workspace.Options) workspace.Options {
	s := a.Config.Settings
	if opts.Python == "" {
		opts.Python = s.PythonVersion
	}
	opts.Library = s.Library
	opts.KernelName = s.KernelName
	opts.Version = a.Build.Version
	return opts
}

func printBanner() {
	if b := ui.Banner(); b != "" {
		fmt.Println(b)
		fmt.Println(ui.Tagline())
		fmt.Println()
	}
}

func (a *App) runInit(ctx context.Context, opts workspace.Options) error {
	l := a.Config.Layout
	opts = a.initOptions(opts)

	if l.IsInitialized() {
		ui.Successf("SignalPilot is already initialized at %s", ui.Path(l.Home))
		ui.Muted("Run `sp install --repair` to reinstall packages.")
		return nil
	}

	printBanner()

	// Create the root first so this run is logged.
	if err := os.MkdirAll(l.Home, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", l.Home, err)
	}
	initLogging(a.Config)

	in := &workspace.Initializer{
		Layout:   l,
		Tool:     a.Gateway(),
		Kernels:  jupyter.KernelRegistry{Dir: l.Kernels, IconSource: l.KernelIconSource()},
		Progress: stepProgress{},
	}
	if !opts.SkipWarmup {
		in.Warmer = jupyter.NewWarmer(l, a.Runner)
	}

	res, err := in.Init(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Println()
	for _, w := range res.Warnings {
		ui.Warn(w)
	}
	for _, m := range res.Migrations {
		ui.Mutedf("Applied migration %s", m)
	}
	ui.Successf("Workspace ready at %s", ui.Path(l.Home))
	ui.Mutedf("Python %s, %d packages", res.Python, len(res.Packages))
	if res.Kernel != "" {
		ui.Mutedf("Kernel: %s", res.Kernel)
	}
	fmt.Println()
	fmt.Println(ui.NextSteps("sp lab", "sp lab --team", "sp status"))

	if a.Config.Settings.NotifyEnabled() {
		ui.Notify("SignalPilot", "Your workspace is ready. Run `sp lab` to start.")
	}
	return nil
}

func (a *App) runInitProject(ctx context.Context, opts workspace.Options) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	opts = a.initOptions(opts)
	l := config.ResolveProject(cwd)

	in := &workspace.Initializer{
		Layout:   l,
		Tool:     a.Gateway(),
		Progress: stepProgress{},
	}
	res, err := in.InitProject(ctx, opts)
	if err != nil {
		return err
	}
	if res.AlreadyInitialized {
		ui.Successf("Project already initialized in %s", ui.Path(l.Home))
		return nil
	}

	fmt.Println()
	ui.Successf("Project workspace ready in %s", ui.Path(l.Home))
	for _, f := range res.CreatedFiles {
		ui.Mutedf("  created %s", f)
	}
	fmt.Println()
	fmt.Println(ui.NextSteps("sp lab"))
	return nil
}
