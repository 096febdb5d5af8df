package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalpilot-labs/sp-cli/internal/jupyter"
	"github.com/signalpilot-labs/sp-cli/internal/status"
	"github.com/signalpilot-labs/sp-cli/internal/ui"
)

func (a *App) StatusCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what is installed and whether Jupyter is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unknown output format %q (want table or json)", output)
			}
			cfg, err := a.activeConfig()
			if err != nil {
				return err
			}

			r := &status.Reporter{
				Layout:     cfg.Layout,
				Library:    cfg.Settings.Library,
				KernelName: cfg.Settings.KernelName,
				Ports:      []int{cfg.Settings.Port},
				Tool:       a.Gateway(),
				Probe:      jupyter.NewProbe(),
			}
			s := r.Report(cmd.Context())

			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			printStatus(s, status.Checks(s, cfg.Settings.KernelName))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	return cmd
}

func statusIcon(s status.CheckStatus) string {
	switch s {
	case status.StatusPass:
		return ui.SuccessText(s.String())
	case status.StatusWarn:
		return ui.WarningText(s.String())
	case status.StatusFail:
		return ui.ErrorText(s.String())
	default:
		return ui.MutedText(s.String())
	}
}

func printStatus(s status.InstallationStatus, report *status.Report) {
	fmt.Println()
	ui.Print(ui.Bold("SignalPilot Status"))
	ui.Mutedf("%s · %s mode", s.Platform, s.Mode)
	fmt.Println()

	t := ui.NewTable(20, 6, 50)
	t.SetHeaders("CHECK", "STATUS", "DETAIL")
	for _, r := range report.Results {
		t.AddRow(r.Name, statusIcon(r.Status), r.Message)
	}
	fmt.Print(t.Render())

	seen := make(map[string]bool)
	var fixes []string
	for _, r := range report.Results {
		if r.Fix != "" && r.Status != status.StatusPass && !seen[r.Fix] {
			seen[r.Fix] = true
			fixes = append(fixes, r.Fix)
		}
	}

	pass, warn, fail := report.Summary()
	fmt.Println()
	switch {
	case fail == 0 && warn == 0:
		ui.Success("All checks passed!")
	case fail == 0:
		ui.Printf("%d passed, %d warnings\n", pass, warn)
	default:
		ui.Printf("%d passed, %d warnings, %s\n", pass, warn, ui.ErrorText(fmt.Sprintf("%d failed", fail)))
	}
	if len(fixes) > 0 {
		fmt.Println()
		fmt.Println(ui.NextSteps(fixes...))
	}
	fmt.Println()
}
