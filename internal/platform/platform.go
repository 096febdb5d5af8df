// Package platform provides host platform detection.
package platform

import (
	"os"
	"runtime"
	"strings"
)

// Type represents the host platform type.
type Type int

const (
	Linux Type = iota
	MacOS
	WSL2
	Windows
	Unknown
)

// String returns the string representation of the platform.
func (p Type) String() string {
	switch p {
	case Linux:
		return "linux"
	case MacOS:
		return "darwin"
	case WSL2:
		return "wsl2"
	case Windows:
		return "windows"
	default:
		return "unknown"
	}
}

// Detect determines the current platform.
func Detect() Type {
	switch runtime.GOOS {
	case "linux":
		if isWSL() {
			return WSL2
		}
		return Linux
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	default:
		return Unknown
	}
}

// isWSL checks if running in Windows Subsystem for Linux.
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	lower := strings.ToLower(string(data))
	return strings.Contains(lower, "microsoft") || strings.Contains(lower, "wsl")
}

// IsWindows returns true on native Windows (not WSL).
func IsWindows() bool {
	return runtime.GOOS == "windows"
}

// VenvBinDir returns the name of the executables directory inside a
// virtual environment: "Scripts" on Windows, "bin" everywhere else.
func VenvBinDir() string {
	if IsWindows() {
		return "Scripts"
	}
	return "bin"
}

// Executable appends the platform executable suffix to name.
func Executable(name string) string {
	if IsWindows() && !strings.HasSuffix(name, ".exe") {
		return name + ".exe"
	}
	return name
}

// SupportsShellInstaller reports whether the uv shell installer
// (curl | sh) can run on this host.
func SupportsShellInstaller() bool {
	return Detect() != Windows && Detect() != Unknown
}
