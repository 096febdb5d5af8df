// Package ui provides terminal UI components using charmbracelet libraries.
// All functions gracefully handle non-interactive environments.
package ui

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gen2brain/beeep"
	"golang.org/x/term"
)

var (
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))  // green
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	boldStyle    = lipgloss.NewStyle().Bold(true)
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	cmdStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	// Logger configured for terminal output
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
)

// IsInteractive returns true if stdin is a terminal.
// Use this to gate interactive prompts.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsTTY returns true if stdout is a terminal.
// Use this to gate colored output.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func styled(style lipgloss.Style, s string) string {
	if !IsTTY() {
		return s
	}
	return style.Render(s)
}

// Warn prints a warning message with orange styling.
func Warn(msg string) {
	Logger.Warn(msg)
}

// Warnf prints a formatted warning message.
func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

// Error prints an error message with red styling.
func Error(msg string) {
	Logger.Error(msg)
}

// Errorf prints a formatted error message.
func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

// Info prints an info message with blue styling.
func Info(msg string) {
	Logger.Info(msg)
}

// Infof prints a formatted info message.
func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

// Success prints a success message with green styling.
func Success(msg string) {
	fmt.Println(styled(successStyle, "✓ "+msg))
}

// Successf prints a formatted success message.
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Muted prints a muted/subtle message.
func Muted(msg string) {
	fmt.Println(styled(mutedStyle, msg))
}

// Mutedf prints a formatted muted message.
func Mutedf(format string, args ...interface{}) {
	Muted(fmt.Sprintf(format, args...))
}

// Print prints a plain message.
func Print(msg string) {
	fmt.Println(msg)
}

// Printf prints a formatted message.
func Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// Step prints a numbered progress line such as "[3/7] Installing Python 3.12".
func Step(n, total int, msg string) {
	fmt.Println(StepText(n, total, msg))
}

// StepText returns the formatted step line.
func StepText(n, total int, msg string) string {
	return styled(stepStyle, fmt.Sprintf("[%d/%d]", n, total)) + " " + msg
}

// Hint prints a remediation line under an error.
func Hint(msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintln(os.Stderr, styled(mutedStyle, "  hint: "+msg))
}

// Detail prints indented captured output (e.g. a tool's stderr) to stderr.
func Detail(output string) {
	output = strings.TrimSpace(output)
	if output == "" {
		return
	}
	for _, line := range strings.Split(output, "\n") {
		fmt.Fprintln(os.Stderr, styled(mutedStyle, "  │ "+line))
	}
}

// Bold returns bolded text.
func Bold(s string) string {
	return styled(boldStyle, s)
}

// Name returns a styled resource name (kernel, package).
func Name(s string) string {
	return styled(nameStyle, s)
}

// Path returns a styled file path.
func Path(s string) string {
	return styled(pathStyle, s)
}

// Command returns a styled shell command for next-step hints.
func Command(s string) string {
	return styled(cmdStyle, s)
}

// Header returns styled header text.
func Header(s string) string {
	return styled(headerStyle, s)
}

// ErrorText returns styled error text (for inline use, not logging).
func ErrorText(s string) string {
	return styled(errorStyle, s)
}

// WarningText returns styled warning text (for inline use).
func WarningText(s string) string {
	return styled(warningStyle, s)
}

// SuccessText returns styled success text (for inline use).
func SuccessText(s string) string {
	return styled(successStyle, s)
}

// MutedText returns styled muted text (for inline use).
func MutedText(s string) string {
	return styled(mutedStyle, s)
}

// Confirm prompts the user for a yes/no confirmation.
// Returns false if not interactive or user declines.
func Confirm(title, description string) bool {
	if !IsInteractive() {
		return false
	}

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		return false
	}
	return confirmed
}

// ConfirmWithDefault prompts the user but returns defaultVal in non-interactive mode.
func ConfirmWithDefault(title, description string, defaultVal bool) bool {
	if !IsInteractive() {
		return defaultVal
	}
	return Confirm(title, description)
}

// Spin runs fn behind a spinner titled title. Without a TTY the title
// is printed once and fn runs unadorned.
func Spin(title string, fn func() error) error {
	if !IsTTY() {
		Muted(title + "...")
		return fn()
	}

	var err error
	if serr := spinner.New().
		Title(" " + title + "...").
		Action(func() { err = fn() }).
		Run(); serr != nil {
		return serr
	}
	return err
}

// NextSteps renders a boxed list of commands to run next.
func NextSteps(steps ...string) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = Command(s)
	}
	return Box("Next steps", strings.Join(lines, "\n"))
}

// Box renders text in a styled box.
func Box(title, content string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1)

	if title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
		return titleStyle.Render(title) + "\n" + style.Render(content)
	}
	return style.Render(content)
}

// WarningBox renders a warning box.
func WarningBox(title, content string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1)

	if title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
		return titleStyle.Render("⚠ "+title) + "\n" + style.Render(content)
	}
	return style.Render(content)
}

// Table helps render aligned tables with ANSI color support.
type Table struct {
	Headers []string
	Rows    [][]string
	Widths  []int
}

// NewTable creates a new table with the specified column widths.
func NewTable(widths ...int) *Table {
	return &Table{
		Widths: widths,
	}
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render returns the formatted table string.
func (t *Table) Render() string {
	var sb strings.Builder

	if len(t.Headers) > 0 {
		for i, h := range t.Headers {
			sb.WriteString(Header(padRight(h, t.width(i))))
			if i < len(t.Headers)-1 {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\n")

		totalWidth := 0
		for i, w := range t.Widths {
			totalWidth += w
			if i < len(t.Widths)-1 {
				totalWidth += 2
			}
		}
		sb.WriteString(strings.Repeat("─", totalWidth))
		sb.WriteString("\n")
	}

	for _, row := range t.Rows {
		for i, cell := range row {
			padding := t.width(i) - visibleWidth(cell)
			if padding < 0 {
				padding = 0
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", padding))
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (t *Table) width(i int) int {
	if i < len(t.Widths) {
		return t.Widths[i]
	}
	return 10
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// visibleWidth returns the visible width of a string, ignoring ANSI codes.
func visibleWidth(s string) int {
	inEscape := false
	width := 0
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		width++
	}
	return width
}

// Notify sends a desktop notification (best effort, cross-platform).
func Notify(title, message string) {
	if err := beeep.Notify(title, message, ""); err == nil {
		return
	}

	// Fallback: macOS osascript
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		_ = exec.Command("osascript", "-e", script).Start()
	}
}
