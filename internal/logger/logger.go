// Package logger configures diagnostic output for the tm commands.
package logger

import (
	"io"
	"log/slog"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for long-running commands that log to a file.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// New builds the command logger. Verbose selects debug level; anything
// quieter only surfaces errors. Output goes to w, stderr in practice.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// FileWriter returns a rotating writer for path. Rotation follows
// lumberjack semantics. Used by the autoextend loop, whose diagnostics
// would otherwise vanish with its detached stderr.
func FileWriter(path string) io.WriteCloser {
	return &lj.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
	}
}
