// Package logger builds the process-wide logrus logger.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level string // logrus level name; unknown values fall back to info
	File  string // when set, logs are also written to this rotated file
	JSON  bool
}

// New returns a logger writing to stdout and, if opts.File is set, to a
// size-rotated file.
func New(opts Options) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(Writer(os.Stdout, opts.File))

	if opts.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// Writer tees w into a lumberjack rotated file when path is non-empty.
func Writer(w io.Writer, path string) io.Writer {
	if path == "" {
		return w
	}
	return io.MultiWriter(w, Rotating(path))
}

// Rotating returns a file writer that rolls over at 10 MB and keeps a
// week of compressed backups.
func Rotating(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	}
}
