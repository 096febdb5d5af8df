// Package logging writes structured JSON logs to a rotating file under
// the workspace system/logs directory.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file inside the logs directory.
const FileName = "sp.log"

// Config holds logging configuration.
type Config struct {
	Dir        string // Directory for log files
	MaxSizeMB  int    // Max size per log file in MB (default: 10)
	MaxBackups int    // Max number of old log files to keep (default: 3)
	MaxAgeDays int    // Max age in days to keep old log files (default: 28)
	Compress   bool   // Whether to compress old log files (default: true)
	Debug      bool   // Enable debug level logging

	// Root must already exist for file logging to start. Commands run
	// before init leave no trace on disk.
	Root string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(logDir string) Config {
	return Config{
		Dir:        logDir,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// Logger wraps slog with our configuration.
type Logger struct {
	*slog.Logger
	lumberjack *lumberjack.Logger
	cmdWriter  io.Writer
}

var defaultLogger *Logger

// Init initializes the global logger. When cfg.Root is set and missing,
// the logger stays in discard mode and Init returns nil.
func Init(cfg Config) error {
	if cfg.Root != "" {
		if _, err := os.Stat(cfg.Root); err != nil {
			return nil
		}
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return err
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, FileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	// Re-init after init creates the workspace replaces the discard logger.
	_ = Close()
	defaultLogger = newLogger(lj, cfg.Debug)
	defaultLogger.lumberjack = lj
	return nil
}

// InitWriter points the global logger at w. Tests use it to inspect
// log records.
func InitWriter(w io.Writer, debug bool) {
	defaultLogger = newLogger(w, debug)
}

func newLogger(w io.Writer, debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger:    slog.New(handler),
		cmdWriter: w,
	}
}

// Get returns the global logger.
func Get() *Logger {
	if defaultLogger == nil {
		return &Logger{
			Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
			cmdWriter: io.Discard,
		}
	}
	return defaultLogger
}

// Close closes the log file.
func Close() error {
	if defaultLogger != nil && defaultLogger.lumberjack != nil {
		err := defaultLogger.lumberjack.Close()
		defaultLogger = nil
		return err
	}
	return nil
}

// CmdWriter returns a writer for capturing command output.
// This can be used as Stdout/Stderr for exec.Command.
func (l *Logger) CmdWriter() io.Writer {
	return l.cmdWriter
}

// MultiWriter returns a writer that writes to both the log and the provided writer.
func (l *Logger) MultiWriter(w io.Writer) io.Writer {
	if l.cmdWriter == nil || l.cmdWriter == io.Discard {
		return w
	}
	return io.MultiWriter(w, l.cmdWriter)
}

// Cmd logs a command execution.
func (l *Logger) Cmd(name string, args []string) {
	l.Info("executing command", "cmd", name, "args", args)
}

// CmdOutput logs command output.
func (l *Logger) CmdOutput(name string, output []byte, err error) {
	if err != nil {
		l.Error("command failed", "cmd", name, "error", err, "output", string(output))
	} else {
		l.Debug("command succeeded", "cmd", name, "output", string(output))
	}
}

// CmdStart logs the start of a command that will stream output.
func (l *Logger) CmdStart(name string, args []string) {
	l.Info("starting command", "cmd", name, "args", args)
}

// CmdEnd logs the end of a streaming command.
func (l *Logger) CmdEnd(name string, err error) {
	if err != nil {
		l.Error("command failed", "cmd", name, "error", err)
	} else {
		l.Debug("command completed", "cmd", name)
	}
}

// CmdExit logs a command's exit status and how long it ran.
func (l *Logger) CmdExit(name string, code int, elapsed time.Duration) {
	l.Info("command exited", "cmd", name, "exit_code", code, "elapsed", elapsed.Round(time.Millisecond).String())
}

// Step logs the start of a named workflow step and returns a func that
// logs its completion.
func (l *Logger) Step(name string) func(err error) {
	start := time.Now()
	l.Info("step started", "step", name)
	return func(err error) {
		elapsed := time.Since(start).Round(time.Millisecond).String()
		if err != nil {
			l.Error("step failed", "step", name, "error", err, "elapsed", elapsed)
			return
		}
		l.Info("step completed", "step", name, "elapsed", elapsed)
	}
}
