package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signalpilot-labs/sp-cli/internal/jupyter"
	"github.com/signalpilot-labs/sp-cli/internal/logging"
	"github.com/signalpilot-labs/sp-cli/internal/ui"
	"github.com/signalpilot-labs/sp-cli/internal/workspace"
)

// promptConfirmer asks on the terminal. Without a TTY it declines.
type promptConfirmer struct{}

func (promptConfirmer) Confirm(title, description string) bool {
	return ui.Confirm(title, description)
}

func (a *App) InstallCmd() *cobra.Command {
	var repair, force bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Show the installation, repair it, or reset system files",
		Long: `Without flags, show the installed version and environment.

--repair reinstalls the environment and core packages, restores missing
directories and rewrites the shipped default config files.
--force removes .signalpilot, .venv and system after confirmation.
Notebooks, connections, skills and rules are never removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case force:
				return a.runForceReset(promptConfirmer{})
			case repair:
				return a.runRepair(cmd.Context())
			default:
				return a.showInstall()
			}
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "Repair a broken installation")
	cmd.Flags().BoolVar(&force, "force", false, "Remove system directories so `sp init` starts fresh")
	cmd.MarkFlagsMutuallyExclusive("repair", "force")
	return cmd
}

func (a *App) showInstall() error {
	l := a.Config.Layout
	if !l.IsInitialized() {
		ui.Error("SignalPilot is not installed")
		ui.Hint("run `sp init`")
		return &exitError{code: 1}
	}

	version := "unknown"
	if v, err := workspace.ReadVersion(l.VersionFile); err == nil {
		version = v.Version
	}
	ui.Successf("SignalPilot is installed (version: %s)", version)
	fmt.Println()
	fmt.Printf("  Workspace:   %s\n", ui.Path(l.Home))
	fmt.Printf("  Environment: %s\n", ui.Path(l.Venv))
	fmt.Printf("  Python:      %s\n", ui.Path(l.VenvPython()))
	fmt.Println()
	fmt.Println(ui.NextSteps("sp lab", "sp lab --team"))
	return nil
}

func (a *App) runRepair(ctx context.Context) error {
	l := a.Config.Layout
	s := a.Config.Settings

	ui.Info("Repairing SignalPilot installation...")
	fmt.Println()
	in := &workspace.Initializer{
		Layout:   l,
		Tool:     a.Gateway(),
		Kernels:  jupyter.KernelRegistry{Dir: l.Kernels, IconSource: l.KernelIconSource()},
		Progress: stepProgress{},
	}
	res, err := in.Repair(ctx, workspace.RepairOptions{
		Python:     s.PythonVersion,
		Library:    s.Library,
		KernelName: s.KernelName,
		Version:    a.Build.Version,
	})
	if err != nil {
		return err
	}

	fmt.Println()
	for _, f := range res.CreatedFiles {
		ui.Mutedf("  restored %s", filepath.Base(f))
	}
	ui.Success("Installation repaired!")
	fmt.Println()
	fmt.Println(ui.NextSteps("sp lab"))
	return nil
}

func (a *App) runForceReset(c workspace.Confirmer) error {
	l := a.Config.Layout
	if _, err := os.Stat(l.Home); err != nil {
		ui.Info("SignalPilot is not installed (nothing to remove)")
		fmt.Println(ui.NextSteps("sp init"))
		return nil
	}

	// The log file lives under system/ and must be closed before removal.
	_ = logging.Close()

	in := &workspace.Initializer{Layout: l}
	removed, err := in.ForceReset(c)
	if errors.Is(err, workspace.ErrResetDeclined) {
		ui.Info("Cancelled, nothing was removed")
		return nil
	}
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		ui.Info("Nothing to remove")
	}
	for _, r := range removed {
		ui.Successf("Removed %s", ui.Path(r))
	}
	fmt.Println()
	fmt.Println(ui.NextSteps("sp init"))
	return nil
}
