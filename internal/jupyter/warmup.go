package jupyter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/signalpilot-labs/sp-cli/internal/config"
	"github.com/signalpilot-labs/sp-cli/internal/logging"
	"github.com/signalpilot-labs/sp-cli/internal/uv"
)

const (
	// WarmupPort is a private port unlikely to collide with a user server.
	WarmupPort = 19999

	announcementsPlugin = "@jupyterlab/apputils-extension:announcements"
)

// WarmupResult reports how the warmup run went.
type WarmupResult struct {
	Ready   bool
	Elapsed time.Duration
}

// Warmer starts the server once, headless, so the first interactive
// launch does not pay for asset and extension builds.
type Warmer struct {
	Layout config.Layout
	Runner uv.Runner
	Probe  *Probe

	Port      int
	Attempts  int
	Interval  time.Duration
	StopGrace time.Duration
}

// NewWarmer returns a Warmer with the standard polling schedule:
// 20 probes one second apart, five seconds to shut down.
func NewWarmer(l config.Layout, r uv.Runner) *Warmer {
	if r == nil {
		r = uv.ExecRunner{}
	}
	return &Warmer{
		Layout:    l,
		Runner:    r,
		Probe:     NewProbe(),
		Port:      WarmupPort,
		Attempts:  20,
		Interval:  time.Second,
		StopGrace: 5 * time.Second,
	}
}

var errExitedEarly = errors.New("jupyter exited before becoming ready")

// Warmup disables the announcements plugin, then starts the server on a
// private port with a random token and waits for /api to answer. The
// server is always stopped before returning.
func (w *Warmer) Warmup(ctx context.Context) (WarmupResult, error) {
	bin := w.Layout.VenvBin("jupyter")
	if _, err := os.Stat(bin); err != nil {
		return WarmupResult{}, &ServerNotFoundError{Path: bin}
	}
	env := Environ(nil, w.Layout)
	log := logging.Get()

	for _, action := range []string{"disable", "lock"} {
		if _, err := w.Runner.Run(ctx, uv.Command{
			Name: bin,
			Args: []string{"labextension", action, announcementsPlugin},
			Env:  env,
		}); err != nil {
			log.Warn("labextension "+action+" failed", "error", err)
		}
	}

	start := time.Now()
	token := uuid.NewString()
	cmd := exec.Command(bin,
		"lab",
		"--no-browser",
		"--port="+strconv.Itoa(w.Port),
		"--ServerApp.port_retries=0",
		"--IdentityProvider.token="+token,
		"--notebook-dir="+w.Layout.LabDir(false),
	)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = log.CmdWriter()
	cmd.Stderr = log.CmdWriter()

	log.CmdStart(bin, cmd.Args[1:])
	if err := cmd.Start(); err != nil {
		return WarmupResult{}, fmt.Errorf("starting warmup server: %w", err)
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	ready, err := w.poll(ctx, exited)
	if !errors.Is(err, errExitedEarly) {
		w.stop(cmd.Process, exited)
	}
	res := WarmupResult{Ready: ready, Elapsed: time.Since(start)}
	log.Info("warmup finished", "ready", ready, "elapsed", res.Elapsed.String())
	return res, err
}

func (w *Warmer) poll(ctx context.Context, exited <-chan error) (bool, error) {
	for i := 0; i < w.Attempts; i++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-exited:
			return false, errExitedEarly
		case <-time.After(w.Interval):
		}
		if w.Probe.IsRunning(ctx, w.Port) {
			return true, nil
		}
	}
	return false, nil
}

// stop terminates the server and kills it if it outlives StopGrace.
func (w *Warmer) stop(p *os.Process, exited <-chan error) {
	_ = terminate(p)
	select {
	case <-exited:
	case <-time.After(w.StopGrace):
		_ = p.Kill()
		<-exited
	}
}
