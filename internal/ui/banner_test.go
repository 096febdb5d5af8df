package ui

import (
	"strings"
	"testing"
)

func TestBannerEmbed(t *testing.T) {
	if bannerText == "" {
		t.Fatal("bannerText is empty, go:embed failed")
	}
	if !strings.Contains(bannerText, "_____") {
		t.Error("bannerText does not look like ASCII art")
	}
}

func TestBannerTTYGuard(t *testing.T) {
	// In test (non-TTY) Banner() returns empty string.
	if got := Banner(); got != "" {
		t.Errorf("Banner() should return empty in non-TTY, got %d bytes", len(got))
	}
}

func TestRenderBanner(t *testing.T) {
	out := renderBanner()
	if out == "" {
		t.Fatal("renderBanner() returned empty")
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("renderBanner() should end with a newline")
	}
	if !strings.Contains(out, "\x1b[38;2;") {
		t.Error("renderBanner() should contain 24-bit ANSI color codes")
	}
	if !strings.Contains(out, "\x1b[0m") {
		t.Error("renderBanner() should contain ANSI reset sequences")
	}
}

func TestTagline(t *testing.T) {
	if !strings.Contains(Tagline(), "SignalPilot") {
		t.Errorf("Tagline() = %q", Tagline())
	}
}

func TestGradientColor(t *testing.T) {
	tests := []struct {
		name string
		t    float64
	}{
		{"start", 0.0},
		{"middle", 0.5},
		{"end", 1.0},
		{"below", -0.1},
		{"above", 1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := gradientColor(tt.t)
			if r < 0 || r > 255 || g < 0 || g > 255 || b < 0 || b > 255 {
				t.Errorf("gradientColor(%v) = (%d,%d,%d), out of range", tt.t, r, g, b)
			}
		})
	}

	if r, g, b := gradientColor(0); r != 0 || g != 210 || b != 190 {
		t.Errorf("gradientColor(0) = (%d,%d,%d), want first stop", r, g, b)
	}
}
