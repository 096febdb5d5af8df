package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/logging"
	"github.com/signalpilot-labs/sp-cli/internal/ui"
	"github.com/signalpilot-labs/sp-cli/internal/uv"
)

// BuildInfo holds version metadata set via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App holds application-wide dependencies for command handlers.
type App struct {
	Config *config.Config
	Build  BuildInfo
	// Runner executes every external process; tests swap it.
	Runner uv.Runner
}

// NewApp loads config and sets up logging.
func NewApp(build BuildInfo) *App {
	cfg, err := config.Load()
	if err != nil {
		ui.Warnf("Using default settings: %v", err)
		defaultCfg := config.DefaultConfig()
		cfg = &defaultCfg
	}

	initLogging(cfg)

	return &App{
		Config: cfg,
		Build:  build,
		Runner: uv.ExecRunner{},
	}
}

func initLogging(cfg *config.Config) {
	s := cfg.Settings.Log
	logCfg := logging.Config{
		Dir:        cfg.Layout.Logs,
		MaxSizeMB:  s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
		MaxAgeDays: s.MaxAgeDays,
		Compress:   s.Compress,
		Debug:      s.Debug,
		Root:       cfg.Layout.Home,
	}
	if logCfg.Dir == "" {
		return
	}

	if err := logging.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
}

// Gateway returns the uv gateway configured from settings.
func (a *App) Gateway() *uv.Gateway {
	t := a.Config.Settings.Timeouts
	return uv.New(a.Runner, uv.Timeouts{
		ToolInstall: t.ToolInstall.Duration,
		Interpreter: t.Interpreter.Duration,
		Packages:    t.Packages.Duration,
	})
}

// exitError carries a process exit code without printing anything.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Root builds the command tree.
func (a *App) Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "sp",
		Short:         "SignalPilot workspace bootstrapper",
		Long:          "sp sets up a local SignalPilot workspace (Python, packages, Jupyter kernel) and launches JupyterLab in it.",
		Version:       a.Build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("sp {{.Version}}\n")

	root.AddCommand(
		a.InitCmd(),
		a.LabCmd(),
		a.StatusCmd(),
		a.InstallCmd(),
		a.UpgradeCmd(),
		a.ActivateCmd(),
		a.ConfigCmd(),
		a.VersionCmd(),
	)
	return root
}

// Execute runs args and returns the process exit code.
func (a *App) Execute(args []string) int {
	root := a.Root()
	root.SetArgs(args)
	return reportError(root.ExecuteContext(context.Background()))
}

// reportError prints err with any captured tool output and hint, and
// maps it to an exit code.
func reportError(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	logging.Get().Error("command failed", "error", err)
	ui.Errorf("%v", err)
	hintFor(err)
	return 1
}

// hintFor prints the captured tool output and remediation carried by err.
func hintFor(err error) {
	var se uv.Stderrer
	if errors.As(err, &se) {
		ui.Detail(se.CapturedStderr())
	}
	var h uv.Hinter
	if errors.As(err, &h) {
		ui.Hint(h.Hint())
	}
}
