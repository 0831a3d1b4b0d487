// Package logger is the process-wide logging facade used by every hivemind module.
//
// It keeps a printf-style API on top of logrus so call sites read as
// logger.Info("[Module] something %q happened", name).
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.RWMutex
	std     = newLogger(os.Stderr)
	logFile *os.File
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// InitLog tees log output to the given file in addition to stderr.
// The parent directory is created when missing.
func InitLog(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file %q: %w", path, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	std.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// FlushLog syncs and closes the log file opened by InitLog.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return
	}
	_ = logFile.Sync()
	_ = logFile.Close()
	logFile = nil
	std.SetOutput(os.Stderr)
}

// SetLevel parses and applies a level name ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	std.SetLevel(lvl)
	mu.Unlock()
	return nil
}

// SetOutput redirects log output. Tests use it to capture or silence logs.
func SetOutput(w io.Writer) {
	mu.Lock()
	std.SetOutput(w)
	mu.Unlock()
}

func entry() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func Debug(format string, args ...interface{}) { entry().Debugf(format, args...) }
func Info(format string, args ...interface{})  { entry().Infof(format, args...) }
func Warn(format string, args ...interface{})  { entry().Warnf(format, args...) }
func Error(format string, args ...interface{}) { entry().Errorf(format, args...) }

// DebugX logs with a "module" field attached.
func DebugX(module string, format string, args ...interface{}) {
	entry().WithField("module", module).Debugf(format, args...)
}

// InfoX logs with a "module" field attached.
func InfoX(module string, format string, args ...interface{}) {
	entry().WithField("module", module).Infof(format, args...)
}

// WarnX logs with a "module" field attached.
func WarnX(module string, format string, args ...interface{}) {
	entry().WithField("module", module).Warnf(format, args...)
}

// ErrorX logs with a "module" field attached.
func ErrorX(module string, format string, args ...interface{}) {
	entry().WithField("module", module).Errorf(format, args...)
}
