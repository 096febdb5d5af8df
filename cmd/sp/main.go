// Command sp bootstraps and launches SignalPilot workspaces.
package main

import (
	"os"

	"github.com/signalpilot-labs/sp-cli/internal/logging"
)

// Build information, set via ldflags:
//
//	-X main.version={{.Version}}
//	-X main.commit={{.Commit}}
//	-X main.date={{.Date}}
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := NewApp(BuildInfo{Version: version, Commit: commit, Date: date})
	code := app.Execute(os.Args[1:])
	_ = logging.Close()
	os.Exit(code)
}
