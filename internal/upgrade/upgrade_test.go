package upgrade

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/uv"
	"github.com/signalpilot-labs/sp-cli/internal/workspace"
)

// newIndex serves versions keyed by package name; others return 404.
func newIndex(t *testing.T, versions map[string]string) *Index {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/pypi/"), "/json")
		v, ok := versions[pkg]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"info":{"name":%q,"version":%q},"releases":{}}`, pkg, v)
	}))
	t.Cleanup(srv.Close)
	return &Index{BaseURL: srv.URL + "/pypi", Client: srv.Client()}
}

type fakeTool struct {
	uvx      [][]string
	upgrades []string
	envs     []string
	err      error
}

func (f *fakeTool) RunUVX(_ context.Context, args ...string) (uv.Result, error) {
	f.uvx = append(f.uvx, args)
	if f.err != nil {
		return uv.Result{ExitCode: 1, Stderr: []byte("resolution failed")}, f.err
	}
	return uv.Result{Stdout: []byte("sp-cli 0.5.0\n")}, nil
}

func (f *fakeTool) UpgradePackage(_ context.Context, requirement, envPath string) error {
	f.upgrades = append(f.upgrades, requirement)
	f.envs = append(f.envs, envPath)
	return f.err
}

func initializedLayout(t *testing.T) config.Layout {
	t.Helper()
	l := config.Resolve(t.TempDir())
	py := l.VenvPython()
	for _, d := range []string{filepath.Dir(py), l.System} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(py, nil, 0755); err != nil {
		t.Fatal(err)
	}
	return l
}

func TestLatestVersion(t *testing.T) {
	idx := newIndex(t, map[string]string{CLIPackage: "0.5.0"})

	v, err := idx.LatestVersion(context.Background(), CLIPackage)
	if err != nil || v != "0.5.0" {
		t.Fatalf("LatestVersion = %q, %v", v, err)
	}

	_, err = idx.LatestVersion(context.Background(), "unpublished")
	var nle *NetworkLookupError
	if !errors.As(err, &nle) || !nle.NotFound() {
		t.Fatalf("error = %v, want NetworkLookupError 404", err)
	}
	if nle.Hint() == "" {
		t.Error("lookup error should carry a hint")
	}
}

func TestLatestVersionUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	idx := &Index{BaseURL: srv.URL, Client: &http.Client{Timeout: time.Second}}
	_, err := idx.LatestVersion(context.Background(), CLIPackage)
	var nle *NetworkLookupError
	if !errors.As(err, &nle) || nle.StatusCode != 0 {
		t.Fatalf("error = %v, want transport NetworkLookupError", err)
	}
}

func TestUpgradeCLI(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		want     Outcome
		wantRuns int
	}{
		{"older", "0.4.2", Upgraded, 1},
		{"same", "0.5.0", UpToDate, 0},
		{"newer", "0.6.0", UpToDate, 0},
		{"dev build", "dev", Upgraded, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &fakeTool{}
			u := &Upgrader{Index: newIndex(t, map[string]string{CLIPackage: "0.5.0"}), Tool: tool}

			res, err := u.UpgradeCLI(context.Background(), tt.current)
			if err != nil {
				t.Fatal(err)
			}
			if res.Outcome != tt.want || res.Latest != "0.5.0" {
				t.Errorf("result = %+v, want %v", res, tt.want)
			}
			if len(tool.uvx) != tt.wantRuns {
				t.Fatalf("uvx runs = %d, want %d", len(tool.uvx), tt.wantRuns)
			}
			if tt.wantRuns == 1 && strings.Join(tool.uvx[0], " ") != "--upgrade sp-cli --version" {
				t.Errorf("uvx args = %v", tool.uvx[0])
			}
		})
	}
}

func TestUpgradeCLIFailures(t *testing.T) {
	u := &Upgrader{Index: newIndex(t, nil), Tool: &fakeTool{}}
	if _, err := u.UpgradeCLI(context.Background(), "0.1.0"); err == nil {
		t.Error("unknown latest version should fail the CLI step")
	}

	tool := &fakeTool{err: errors.New("exit status 2")}
	u = &Upgrader{Index: newIndex(t, map[string]string{CLIPackage: "0.5.0"}), Tool: tool}
	_, err := u.UpgradeCLI(context.Background(), "0.1.0")
	var pie *uv.PackageInstallError
	if !errors.As(err, &pie) || pie.CapturedStderr() != "resolution failed" {
		t.Errorf("error = %v, want PackageInstallError with stderr", err)
	}
}

func TestUpgradeLibraryRequiresInit(t *testing.T) {
	u := &Upgrader{
		Layout:  config.Resolve(t.TempDir()),
		Library: config.DefaultLibrary,
		Index:   newIndex(t, nil),
		Tool:    &fakeTool{},
	}
	_, err := u.UpgradeLibrary(context.Background())
	var nie *NotInitializedError
	if !errors.As(err, &nie) {
		t.Fatalf("error = %v, want NotInitializedError", err)
	}
}

func TestUpgradeLibraryUnpublishedSkips(t *testing.T) {
	tool := &fakeTool{}
	u := &Upgrader{
		Layout:  initializedLayout(t),
		Library: "signalpilot-ai-internal",
		Index:   newIndex(t, nil),
		Tool:    tool,
	}
	res, err := u.UpgradeLibrary(context.Background())
	if err != nil {
		t.Fatalf("unpublished library should not fail: %v", err)
	}
	if res.Outcome != Skipped || len(tool.upgrades) != 0 {
		t.Errorf("result = %+v, upgrades = %v", res, tool.upgrades)
	}
}

func TestUpgradeLibraryUpdatesVersionFile(t *testing.T) {
	l := initializedLayout(t)
	installed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := workspace.WriteVersion(l.VersionFile, workspace.VersionInfo{
		Version:        "0.4.0",
		Python:         "3.12",
		Library:        config.DefaultLibrary,
		LibraryVersion: "1.0.0",
		InstalledAt:    installed,
	}); err != nil {
		t.Fatal(err)
	}

	tool := &fakeTool{}
	u := &Upgrader{
		Layout:  l,
		Library: config.DefaultLibrary,
		Index:   newIndex(t, map[string]string{config.DefaultLibrary: "1.2.0"}),
		Tool:    tool,
	}
	res, err := u.UpgradeLibrary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Upgraded || res.Current != "1.0.0" {
		t.Errorf("result = %+v", res)
	}
	if len(tool.upgrades) != 1 || tool.upgrades[0] != "signalpilot-ai==1.2.0" || tool.envs[0] != l.Venv {
		t.Errorf("upgrades = %v into %v", tool.upgrades, tool.envs)
	}

	v, err := workspace.ReadVersion(l.VersionFile)
	if err != nil {
		t.Fatal(err)
	}
	if v.LibraryVersion != "1.2.0" || v.UpgradedAt == nil {
		t.Errorf("version file not updated: %+v", v)
	}
	if !v.InstalledAt.Equal(installed) {
		t.Errorf("InstalledAt changed to %v", v.InstalledAt)
	}

	// A second run finds nothing newer.
	res, err = u.UpgradeLibrary(context.Background())
	if err != nil || res.Outcome != UpToDate {
		t.Errorf("second run = %+v, %v", res, err)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"0.5.0", "0.5.0", 0},
		{"0.5.0", "0.4.9", 1},
		{"0.4.10", "0.4.9", 1},
		{"1.0", "1.0.0", 0},
		{"v1.2.0", "1.2.0", 0},
		{"1.0.0rc1", "1.0.1", -1},
	}
	for _, tt := range tests {
		if got := CompareVersions(tt.v1, tt.v2); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
		}
	}
}
