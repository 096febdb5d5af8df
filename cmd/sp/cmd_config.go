package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalpilot-labs/sp-cli/internal/logging"
	"github.com/signalpilot-labs/sp-cli/internal/ui"
)

func (a *App) ConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show workspace paths, settings and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.activeConfig()
			if err != nil {
				return err
			}
			l := cfg.Layout
			s := cfg.Settings

			fmt.Println(ui.Bold("SignalPilot Configuration"))
			fmt.Println(strings.Repeat("=", 40))

			fmt.Printf("\n%s (%s mode)\n", ui.Header("Directories:"), l.Mode)
			for _, r := range l.Roles() {
				fmt.Printf("  %-24s %s\n", r.Name+":", ui.Path(r.Path))
			}

			fmt.Println("\n" + ui.Header("Settings:"))
			fmt.Printf("  Python:      %s\n", s.PythonVersion)
			fmt.Printf("  Library:     %s\n", ui.Name(s.Library))
			fmt.Printf("  Kernel:      %s\n", ui.Name(s.KernelName))
			fmt.Printf("  Port:        %d\n", s.Port)
			fmt.Printf("  Notify:      %t\n", s.NotifyEnabled())

			fmt.Println("\n" + ui.Header("Timeouts:"))
			fmt.Printf("  uv install:  %s\n", s.Timeouts.ToolInstall.Duration)
			fmt.Printf("  Python:      %s\n", s.Timeouts.Interpreter.Duration)
			fmt.Printf("  Packages:    %s\n", s.Timeouts.Packages.Duration)

			fmt.Println("\n" + ui.Header("Settings Files:"))
			if len(cfg.Sources) == 0 {
				ui.Muted("  None loaded (run 'sp init' to create them)")
			}
			for _, src := range cfg.Sources {
				fmt.Printf("  %s %s\n", ui.Path(src), ui.SuccessText("✓"))
			}

			fmt.Println("\n" + ui.Header("Environment Overrides:"))
			printEnvVar("SP_HOME")
			printEnvVar("SP_PYTHON_VERSION")
			printEnvVar("SP_LIBRARY")
			printEnvVar("SP_LOG_DEBUG")
			printEnvVar("SP_NO_NOTIFY")

			if l.Logs != "" {
				fmt.Println("\n" + ui.Header("Logging:"))
				fmt.Printf("  Log file:    %s\n", ui.Path(filepath.Join(l.Logs, logging.FileName)))
				fmt.Printf("  Max size:    %d MB\n", s.Log.MaxSizeMB)
				fmt.Printf("  Max backups: %d\n", s.Log.MaxBackups)
				fmt.Printf("  Max age:     %d days\n", s.Log.MaxAgeDays)
				fmt.Printf("  Compress:    %t\n", s.Log.Compress)
				fmt.Printf("  Debug:       %t\n", s.Log.Debug)
			}
			return nil
		},
	}
}

func printEnvVar(name string) {
	if val := os.Getenv(name); val != "" {
		fmt.Printf("  %s=%s %s\n", name, val, ui.SuccessText("(active)"))
	} else {
		fmt.Printf("  %s %s\n", name, ui.MutedText("(not set)"))
	}
}

func (a *App) VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "sp %s\n", a.Build.Version)
			if a.Build.Commit != "none" && a.Build.Commit != "" {
				fmt.Fprintf(w, "  commit: %s\n", a.Build.Commit)
			}
			if a.Build.Date != "unknown" && a.Build.Date != "" {
				fmt.Fprintf(w, "  built:  %s\n", a.Build.Date)
			}
			fmt.Fprintf(w, "  os:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(w, "  go:     %s\n", runtime.Version())
		},
	}
}
