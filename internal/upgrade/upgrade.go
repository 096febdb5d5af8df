package upgrade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/logging"
	"github.com/signalpilot-labs/sp-cli/internal/uv"
	"github.com/signalpilot-labs/sp-cli/internal/workspace"
)

const (
	// CLIPackage is the CLI's distribution name on the index.
	CLIPackage = "signalpilot-cli"
	// CLITool is the name uvx runs the CLI under.
	CLITool = "sp-cli"

	cliTimeout     = 60 * time.Second
	libraryTimeout = 120 * time.Second
)

// Outcome describes what an upgrade step did.
type Outcome int

const (
	UpToDate Outcome = iota
	Upgraded
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Upgraded:
		return "upgraded"
	case Skipped:
		return "skipped"
	default:
		return "up to date"
	}
}

// StepResult reports one upgrade step.
type StepResult struct {
	Package string
	Current string
	Latest  string
	Outcome Outcome
	// Reason explains a skip.
	Reason string
}

// Tool is the subset of the uv gateway upgrades need.
type Tool interface {
	RunUVX(ctx context.Context, args ...string) (uv.Result, error)
	UpgradePackage(ctx context.Context, requirement, envPath string) error
}

// VersionLookup resolves the latest published version of a package.
type VersionLookup interface {
	LatestVersion(ctx context.Context, pkg string) (string, error)
}

// NotInitializedError is returned when upgrading the library before
// the workspace exists.
type NotInitializedError struct {
	Home string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("SignalPilot is not initialized at %s", e.Home)
}

func (e *NotInitializedError) Hint() string {
	return "run `sp init` first"
}

// Upgrader upgrades the CLI and the library installed in the workspace.
type Upgrader struct {
	Layout  config.Layout
	Library string
	Index   VersionLookup
	Tool    Tool
}

// UpgradeCLI upgrades the uvx-managed CLI when the index has a newer
// release than current. A "dev" or empty current always upgrades.
func (u *Upgrader) UpgradeCLI(ctx context.Context, current string) (StepResult, error) {
	res := StepResult{Package: CLIPackage, Current: current}
	latest, err := u.Index.LatestVersion(ctx, CLIPackage)
	if err != nil {
		return res, err
	}
	res.Latest = latest

	if isRelease(current) && CompareVersions(latest, current) <= 0 {
		res.Outcome = UpToDate
		return res, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cliTimeout)
	defer cancel()
	out, err := u.Tool.RunUVX(ctx, "--upgrade", CLITool, "--version")
	if err != nil {
		return res, &uv.PackageInstallError{Packages: []string{CLITool}, Stderr: string(out.Stderr), Err: err}
	}
	logging.Get().Info("cli upgraded", "from", current, "to", latest)
	res.Outcome = Upgraded
	return res, nil
}

// UpgradeLibrary pins the library to the index's latest release in the
// workspace environment. A library the index does not know is skipped.
func (u *Upgrader) UpgradeLibrary(ctx context.Context) (StepResult, error) {
	l := u.Layout
	res := StepResult{Package: u.Library}
	if !l.IsInitialized() {
		return res, &NotInitializedError{Home: l.Home}
	}

	var info workspace.VersionInfo
	haveInfo := false
	if l.VersionFile != "" {
		v, err := workspace.ReadVersion(l.VersionFile)
		switch {
		case err == nil:
			info, haveInfo = v, true
			res.Current = v.LibraryVersion
		case !errors.Is(err, os.ErrNotExist):
			logging.Get().Warn("reading version file", "error", err)
		}
	}

	latest, err := u.Index.LatestVersion(ctx, u.Library)
	if err != nil {
		logging.Get().Warn("library lookup failed", "library", u.Library, "error", err)
		res.Outcome = Skipped
		res.Reason = "not found on the package index (may not be published yet)"
		return res, nil
	}
	res.Latest = latest

	if res.Current != "" && CompareVersions(latest, res.Current) <= 0 {
		res.Outcome = UpToDate
		return res, nil
	}

	ctx, cancel := context.WithTimeout(ctx, libraryTimeout)
	defer cancel()
	if err := u.Tool.UpgradePackage(ctx, u.Library+"=="+latest, l.Venv); err != nil {
		return res, err
	}
	res.Outcome = Upgraded

	if haveInfo {
		now := time.Now().UTC().Truncate(time.Second)
		info.Library = u.Library
		info.LibraryVersion = latest
		info.UpgradedAt = &now
		if err := workspace.WriteVersion(l.VersionFile, info); err != nil {
			return res, err
		}
	}
	return res, nil
}

func isRelease(v string) bool {
	return v != "" && v != "dev" && v != "unknown"
}

// CompareVersions compares two dotted version strings.
// Returns -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2.
// Non-numeric suffixes such as "rc1" are ignored.
func CompareVersions(v1, v2 string) int {
	parts1 := strings.Split(strings.TrimPrefix(v1, "v"), ".")
	parts2 := strings.Split(strings.TrimPrefix(v2, "v"), ".")

	for i := 0; i < len(parts1) || i < len(parts2); i++ {
		var n1, n2 int
		if i < len(parts1) {
			n1 = leadingInt(parts1[i])
		}
		if i < len(parts2) {
			n2 = leadingInt(parts2[i])
		}
		if n1 < n2 {
			return -1
		}
		if n1 > n2 {
			return 1
		}
	}
	return 0
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}
