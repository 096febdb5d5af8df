package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/spf13/cobra"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/jupyter"
	"github.com/signalpilot-labs/sp-cli/internal/logging"
	"github.com/signalpilot-labs/sp-cli/internal/ui"
)

// activeConfig returns the project config when the working directory
// holds a project workspace, else the global one.
func (a *App) activeConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return a.Config, nil
	}
	pl, ok := config.DetectProject(cwd)
	if !ok {
		return a.Config, nil
	}
	return config.LoadProject(a.Config, pl)
}

func (a *App) LabCmd() *cobra.Command {
	var (
		port      int
		noBrowser bool
		team      bool
		dir       string
	)
	cmd := &cobra.Command{
		Use:   "lab [-- jupyter-args...]",
		Short: "Launch JupyterLab in the workspace",
		Long: `Launch JupyterLab in user-workspace (or team-workspace with --team).

In a directory set up with ` + "`sp init --local`" + `, the project workspace is used.
Arguments after -- are passed to jupyter lab unchanged.`,
		Example: "  sp lab\n  sp lab --team --port 9999\n  sp lab -- --ServerApp.token=secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.activeConfig()
			if err != nil {
				return err
			}
			l := cfg.Layout

			if l.Mode == config.ModeProject && team {
				ui.Info("--team is ignored in project mode")
			}
			ws, err := labDir(l, team, dir)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("port") && cfg.Settings.Port != jupyter.DefaultPort {
				port = cfg.Settings.Port
			}
			probePort := port
			if probePort == 0 {
				probePort = jupyter.DefaultPort
			}
			if jupyter.NewProbe().IsRunning(cmd.Context(), probePort) {
				ui.Warnf("A Jupyter server is already answering on port %d; JupyterLab will pick another port", probePort)
			}

			fmt.Println()
			ui.Infof("Starting JupyterLab in %s (%s mode)", ui.Path(ws), l.Mode)
			ui.Mutedf("Environment: %s", l.Venv)
			fmt.Println()

			launcher := &jupyter.Launcher{Layout: l}
			code, err := launcher.Launch(cmd.Context(), jupyter.LaunchOptions{
				Workspace: ws,
				Port:      port,
				NoBrowser: noBrowser,
				Args:      args,
			})
			if err != nil {
				return err
			}
			logging.Get().Info("lab exited", "code", code)
			if code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&port, "port", 0, "Port for the server (default: Jupyter's own choice)")
	f.BoolVar(&noBrowser, "no-browser", false, "Do not open a browser")
	f.BoolVar(&team, "team", false, "Launch in team-workspace instead of user-workspace")
	f.StringVar(&dir, "dir", "", "Notebook directory, relative to the workspace root")
	return cmd
}

// labDir picks the notebook directory. In the global workspace an
// explicit --dir must stay inside user-workspace or team-workspace.
func labDir(l config.Layout, team bool, dir string) (string, error) {
	if dir == "" {
		return l.LabDir(team), nil
	}
	ws, err := resolveUnder(l.Home, dir)
	if err != nil {
		return "", err
	}
	if l.Mode == config.ModeGlobal && !l.IsAgentAccessible(ws) {
		return "", fmt.Errorf("--dir %s is outside user-workspace and team-workspace", dir)
	}
	return ws, nil
}

// resolveUnder joins dir onto root without letting it escape root.
func resolveUnder(root, dir string) (string, error) {
	if filepath.IsAbs(dir) {
		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("--dir %s is outside the workspace %s", dir, root)
		}
		dir = rel
	}
	return securejoin.SecureJoin(root, dir)
}
