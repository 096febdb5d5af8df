package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalpilot-labs/sp-cli/internal/activate"
	"github.com/signalpilot-labs/sp-cli/internal/ui"
	"github.com/signalpilot-labs/sp-cli/internal/uv"
)

func (a *App) ActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate",
		Short: "Install a permanent `sp` command (run via: uvx sp-cli activate)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			act := &activate.Activator{Home: home, Ephemeral: uv.RunningInEphemeralContext}
			res, err := act.Activate()
			if errors.Is(err, activate.ErrNotEphemeral) {
				ui.Error(err.Error())
				ui.Hint("install uv first: " + uv.ManualInstallURL)
				return &exitError{code: 1}
			}
			if err != nil {
				return err
			}

			ui.Successf("Created CLI wrapper: %s", ui.Path(res.Wrapper))
			if len(res.UpdatedRC) > 0 {
				ui.Successf("Added to PATH: %s", strings.Join(res.UpdatedRC, ", "))
			} else {
				ui.Info("PATH already configured")
			}
			fmt.Println()
			ui.Success("SignalPilot CLI installed!")
			fmt.Println()
			fmt.Println(ui.NextSteps("source ~/.zshrc", "sp init"))
			return nil
		},
	}
}
