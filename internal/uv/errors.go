package uv

import (
	"errors"
	"fmt"
	"strings"
)

// ManualInstallURL documents installing uv by hand.
const ManualInstallURL = "https://docs.astral.sh/uv/getting-started/installation/"

// ToolInstallError is returned when the uv installer script fails.
type ToolInstallError struct {
	Stderr string
	Err    error
}

func (e *ToolInstallError) Error() string {
	return fmt.Sprintf("installing uv failed: %v", e.Err)
}

func (e *ToolInstallError) Unwrap() error { return e.Err }

func (e *ToolInstallError) Hint() string {
	return "install uv manually: " + ManualInstallURL
}

// ToolUnavailableError means uv is neither installed nor installable.
type ToolUnavailableError struct {
	Cause error
}

func (e *ToolUnavailableError) Error() string {
	if e.Cause == nil {
		return "uv is not available"
	}
	return fmt.Sprintf("uv is not available: %v", e.Cause)
}

func (e *ToolUnavailableError) Unwrap() error { return e.Cause }

func (e *ToolUnavailableError) Hint() string {
	return "install uv manually from " + ManualInstallURL + " and re-run"
}

// InterpreterInstallError is returned when uv cannot install a Python.
type InterpreterInstallError struct {
	Version string
	Stderr  string
	Err     error
}

func (e *InterpreterInstallError) Error() string {
	return fmt.Sprintf("installing Python %s failed: %v", e.Version, e.Err)
}

func (e *InterpreterInstallError) Unwrap() error { return e.Err }

func (e *InterpreterInstallError) Hint() string {
	return "check the version exists with `uv python list`, or pass --python"
}

// EnvironmentCreateError is returned when the venv cannot be created.
type EnvironmentCreateError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *EnvironmentCreateError) Error() string {
	return fmt.Sprintf("creating environment %s failed: %v", e.Path, e.Err)
}

func (e *EnvironmentCreateError) Unwrap() error { return e.Err }

func (e *EnvironmentCreateError) Hint() string {
	return "remove the environment and run `sp install --repair`"
}

// PackageInstallError is returned when uv pip install fails. Packages
// installed before the failure are not rolled back.
type PackageInstallError struct {
	Packages []string
	Stderr   string
	Err      error
}

func (e *PackageInstallError) Error() string {
	return fmt.Sprintf("installing %s failed: %v", strings.Join(e.Packages, " "), e.Err)
}

func (e *PackageInstallError) Unwrap() error { return e.Err }

func (e *PackageInstallError) Hint() string {
	return "check your network connection, then run `sp install --repair`"
}

// Hinter is implemented by errors that carry a remediation line.
type Hinter interface {
	Hint() string
}

// Stderrer is implemented by errors that carry a tool's captured stderr.
type Stderrer interface {
	CapturedStderr() string
}

func (e *ToolInstallError) CapturedStderr() string       { return e.Stderr }
func (e *InterpreterInstallError) CapturedStderr() string { return e.Stderr }
func (e *EnvironmentCreateError) CapturedStderr() string  { return e.Stderr }
func (e *PackageInstallError) CapturedStderr() string     { return e.Stderr }

var errNotOnPath = errors.New("installer finished but uv was not found on PATH or in ~/.local/bin")
