package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalpilot-labs/sp-cli/internal/ui"
	"github.com/signalpilot-labs/sp-cli/internal/upgrade"
)

func (a *App) UpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade the sp CLI and the SignalPilot library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := &upgrade.Upgrader{
				Layout:  a.Config.Layout,
				Library: a.Config.Settings.Library,
				Index:   upgrade.NewIndex(),
				Tool:    a.Gateway(),
			}

			fmt.Println()
			ui.Info("Upgrading SignalPilot...")
			fmt.Println()

			var cli upgrade.StepResult
			cliErr := ui.Spin("Checking for CLI updates", func() error {
				var err error
				cli, err = u.UpgradeCLI(cmd.Context(), a.Build.Version)
				return err
			})
			if cliErr != nil {
				ui.Warnf("CLI upgrade failed: %v", cliErr)
				hintFor(cliErr)
			} else {
				ui.Mutedf("Current: %s", cli.Current)
				ui.Mutedf("Latest:  %s", cli.Latest)
				reportStep("CLI", cli)
			}
			fmt.Println()

			var lib upgrade.StepResult
			libErr := ui.Spin("Checking for "+u.Library+" updates", func() error {
				var err error
				lib, err = u.UpgradeLibrary(cmd.Context())
				return err
			})
			if libErr != nil {
				ui.Warnf("%s upgrade failed: %v", u.Library, libErr)
				hintFor(libErr)
			} else {
				reportStep(u.Library, lib)
			}
			fmt.Println()

			switch {
			case cliErr == nil && libErr == nil:
				ui.Success("Upgrade complete!")
				return nil
			case cliErr == nil:
				ui.Info("CLI is current, but the library upgrade had issues")
			case libErr == nil:
				ui.Info("Library is current, but the CLI upgrade had issues")
			default:
				ui.Error("Upgrade failed")
			}
			return &exitError{code: 1}
		},
	}
}

func reportStep(name string, r upgrade.StepResult) {
	switch r.Outcome {
	case upgrade.Upgraded:
		ui.Successf("%s upgraded to %s", name, r.Latest)
	case upgrade.Skipped:
		ui.Infof("%s %s", name, r.Reason)
	default:
		ui.Successf("%s is up to date (%s)", name, r.Latest)
	}
}
