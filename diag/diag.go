// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package diag builds the diagnostic logger that controllers report to.
//
// The logger is a logrus.Logger writing to the console, to a rotated
// file, or both. Verbose controllers send raw request errors here; all
// controllers log their request lifecycle at debug level.
package diag

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timestampFormat = "2006-01-02 15:04:05"

// LogConfig configures a diagnostic logger.
type LogConfig struct {
	// Level is a logrus level name. Unknown or empty means info.
	Level string `yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `yaml:"format"`

	// Quiet disables console output.
	Quiet bool `yaml:"quiet"`

	// File, if set, enables rotated file output.
	File string `yaml:"file"`

	// MaxSize is the size in megabytes at which the file is rotated.
	MaxSize int `yaml:"max_size"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `yaml:"max_backups"`

	// MaxAge is the number of days rotated files are kept.
	MaxAge int `yaml:"max_age"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// A Logger is a logrus.Logger that owns its file output.
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

// New returns a logger configured by c. Console output goes to stderr.
func New(c LogConfig) (*Logger, error) {
	return NewWithConsole(c, os.Stderr)
}

// NewWithConsole is like New but writes console output to console.
func NewWithConsole(c LogConfig, console io.Writer) (*Logger, error) {
	l := &Logger{Logger: logrus.New()}
	l.SetLevel(ParseLevel(c.Level))

	if strings.EqualFold(c.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
			PadLevelText:    true,
		})
	}

	var writers []io.Writer
	if !c.Quiet && console != nil {
		writers = append(writers, console)
	}
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return nil, err
		}
		l.file = &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    orDefault(c.MaxSize, 100),
			MaxBackups: orDefault(c.MaxBackups, 10),
			MaxAge:     orDefault(c.MaxAge, 30),
			Compress:   c.Compress,
		}
		writers = append(writers, l.file)
	}

	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}
	return l, nil
}

// Close closes the file output, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Rotate forces rotation of the file output, if any.
func (l *Logger) Rotate() error {
	if l.file == nil {
		return nil
	}
	return l.file.Rotate()
}

// ParseLevel parses a logrus level name, defaulting to info.
func ParseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}
