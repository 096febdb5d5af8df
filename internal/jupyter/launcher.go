// Package jupyter launches and prepares the Jupyter server of a
// SignalPilot workspace.
package jupyter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/logging"
)

// LaunchOptions configures one server run.
type LaunchOptions struct {
	Workspace string
	Port      int // zero lets the server pick
	NoBrowser bool
	// Args are passed through to the server verbatim.
	Args []string
}

// Launcher starts the workspace's Jupyter server in the foreground.
type Launcher struct {
	Layout config.Layout
}

// ServerBinary returns the jupyter executable inside the environment.
func (l *Launcher) ServerBinary() string {
	return l.Layout.VenvBin("jupyter")
}

// BuildArgs returns the server argv (without the binary).
func BuildArgs(opts LaunchOptions) []string {
	args := []string{"lab", "--notebook-dir=" + opts.Workspace}
	if opts.Port > 0 {
		args = append(args, "--port="+strconv.Itoa(opts.Port))
	}
	if opts.NoBrowser {
		args = append(args, "--no-browser")
	}
	return append(args, opts.Args...)
}

// Environ returns base with the layout's Jupyter variables set,
// replacing any inherited values.
func Environ(base []string, l config.Layout) []string {
	vars := l.JupyterEnv()
	env := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := vars[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env
}

// Launch runs the server and blocks until it exits, returning its exit
// code. A server killed by a signal yields 128+signo.
func (l *Launcher) Launch(ctx context.Context, opts LaunchOptions) (int, error) {
	bin := l.ServerBinary()
	if _, err := os.Stat(bin); err != nil {
		return 1, &ServerNotFoundError{Path: bin}
	}
	if info, err := os.Stat(opts.Workspace); err != nil || !info.IsDir() {
		return 1, &WorkspaceMissingError{Path: opts.Workspace}
	}

	args := BuildArgs(opts)
	log := logging.Get()
	log.CmdStart(bin, args)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = Environ(os.Environ(), l.Layout)
	cmd.Dir = opts.Workspace
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	// The server logs to stderr; keep a copy next to sp's own log.
	cmd.Stderr = log.MultiWriter(os.Stderr)
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	cmd.WaitDelay = 5 * time.Second

	sig := trapSignals()
	defer sig.Release()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		log.CmdEnd(bin, err)
		return 1, fmt.Errorf("starting jupyter: %w", err)
	}
	sig.forward(cmd.Process)

	err := cmd.Wait()
	code := exitStatus(cmd.ProcessState)
	log.CmdExit(bin, code, time.Since(start))
	if cmd.ProcessState == nil {
		return 1, fmt.Errorf("waiting for jupyter: %w", err)
	}
	return code, nil
}
