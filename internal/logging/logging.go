// Package logging builds the launchers' diagnostic loggers.
//
// User-facing messages are written directly to the console by the CLI;
// these loggers carry debug detail only. The silent launcher never logs
// to the console, only to a file next to the user configuration.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvDebug enables debug logging when set to a truthy value.
const EnvDebug = "VOICETYPE_DEBUG"

// FileName is the silent launcher's log file, inside the config directory.
const FileName = "launcher.log"

// DebugEnabled reports whether getenv(EnvDebug) is truthy.
func DebugEnabled(getenv func(string) string) bool {
	switch strings.ToLower(strings.TrimSpace(getenv(EnvDebug))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// New returns a logger writing to w. Without debug only warnings and
// errors are emitted.
func New(w io.Writer, debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.WarnLevel)
	}
	return l
}

// NewFile returns a logger appending to dir/FileName. If the file cannot
// be opened the logger discards everything: a windowless process has
// nowhere else to report.
func NewFile(dir string, debug bool) (*logrus.Logger, io.Closer) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	f, err := openLog(dir)
	if err != nil {
		l.SetOutput(io.Discard)
		return l, io.NopCloser(nil)
	}
	l.SetOutput(f)
	return l, f
}

func openLog(dir string) (*os.File, error) {
	if dir == "" {
		return nil, os.ErrNotExist
	}
	if err := os.MkdirAll(dir, 0750); err != nil { // #nosec G301 -- user config dir
		return nil, err
	}
	// #nosec G302 G304 -- log file in the user config dir
	return os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
