package platform

import (
	"runtime"
	"testing"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		p    Type
		want string
	}{
		{Linux, "linux"},
		{MacOS, "darwin"},
		{WSL2, "wsl2"},
		{Windows, "windows"},
		{Unknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestVenvBinDir(t *testing.T) {
	want := "bin"
	if runtime.GOOS == "windows" {
		want = "Scripts"
	}
	if got := VenvBinDir(); got != want {
		t.Errorf("VenvBinDir() = %q, want %q", got, want)
	}
}

func TestExecutable(t *testing.T) {
	got := Executable("python")
	if runtime.GOOS == "windows" {
		if got != "python.exe" {
			t.Errorf("Executable(python) = %q, want python.exe", got)
		}
		return
	}
	if got != "python" {
		t.Errorf("Executable(python) = %q, want python", got)
	}
}
