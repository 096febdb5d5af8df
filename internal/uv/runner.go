package uv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/signalpilot-labs/sp-cli/internal/logging"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	// Env is appended to the parent environment.
	Env []string
	Dir string
}

// Result is the captured outcome of a Command.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner executes external commands. A non-nil error means the command
// could not start, exited non-zero, or was cut off by ctx.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec, capturing their output and
// logging every invocation.
type ExecRunner struct{}

// Run executes c and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	log := logging.Get()
	log.Cmd(c.Name, c.Args)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Dir = c.Dir
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		ExitCode: exitCode(cmd, err),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%s timed out: %w", c.Name, ctx.Err())
	}
	log.CmdOutput(c.Name, append(res.Stdout, res.Stderr...), err)
	log.CmdExit(c.Name, res.ExitCode, time.Since(start))
	return res, err
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
