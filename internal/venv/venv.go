package venv

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// Mode selects which interpreter a launch needs.
type Mode int

const (
	// Console is the standard interpreter attached to a console window.
	Console Mode = iota
	// Windowless is the interpreter variant that never allocates a console.
	Windowless
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case Console:
		return "Console"
	case Windowless:
		return "Windowless"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// cfgFileName is the marker file written by the venv module.
const cfgFileName = "pyvenv.cfg"

// Layout describes where a virtual environment keeps its entry points,
// relative to the environment root.
type Layout struct {
	BinDir     string
	Activate   string
	Console    string
	Windowless string
	// PathSep separates PATH entries on the target platform.
	PathSep string
}

// Interpreter returns the relative interpreter path for mode.
func (l Layout) Interpreter(mode Mode) string {
	if mode == Windowless {
		return l.Windowless
	}
	return l.Console
}

// LayoutFor returns the virtual environment layout used on goos.
// POSIX environments have no windowless interpreter, so both modes
// use bin/python there.
func LayoutFor(goos string) Layout {
	if goos == "windows" {
		return Layout{
			BinDir:     "Scripts",
			Activate:   filepath.Join("Scripts", "activate.bat"),
			Console:    filepath.Join("Scripts", "python.exe"),
			Windowless: filepath.Join("Scripts", "pythonw.exe"),
			PathSep:    ";",
		}
	}
	return Layout{
		BinDir:     "bin",
		Activate:   filepath.Join("bin", "activate"),
		Console:    filepath.Join("bin", "python"),
		Windowless: filepath.Join("bin", "python"),
		PathSep:    ":",
	}
}

// ---------------------------------------------------------------------------
// Resolver - testable virtual environment lookup
// ---------------------------------------------------------------------------

// Resolver locates virtual environments on a filesystem.
type Resolver struct {
	fs   afero.Fs
	goos string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFs sets the filesystem (for testing with afero.NewMemMapFs).
func WithFs(fs afero.Fs) ResolverOption {
	return func(r *Resolver) { r.fs = fs }
}

// WithPlatform sets the target platform (for testing cross-platform layouts).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver backed by the OS filesystem by default.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fs:   afero.NewOsFs(),
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the layout for the resolver's platform.
func (r *Resolver) Layout() Layout {
	return LayoutFor(r.goos)
}

// Exists reports whether path exists on the resolver's filesystem.
func (r *Resolver) Exists(path string) (bool, error) {
	return afero.Exists(r.fs, path)
}

// Resolve checks that dir is a usable virtual environment and returns the
// activation details for mode. Checks run in the order a shell would hit
// them: the directory, the activation entry point, then the interpreter.
func (r *Resolver) Resolve(dir string, mode Mode) (*Env, error) {
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}

	info, err := r.fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("cannot access virtual environment %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotVenv, dir)
	}

	layout := r.Layout()

	activate := filepath.Join(dir, layout.Activate)
	if ok, _ := r.Exists(activate); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoActivate, activate)
	}

	interp := filepath.Join(dir, layout.Interpreter(mode))
	if ok, _ := r.Exists(interp); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoInterpreter, interp)
	}

	// pyvenv.cfg is informational; environments created by virtualenv
	// or copied around may lack it.
	cfg, err := r.ReadConfig(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return &Env{
		Dir:          dir,
		BinDir:       filepath.Join(dir, layout.BinDir),
		ActivatePath: activate,
		Interpreter:  interp,
		Mode:         mode,
		Config:       cfg,
		goos:         r.goos,
		pathSep:      layout.PathSep,
	}, nil
}

// ReadConfig parses dir/pyvenv.cfg.
// Format: one "key = value" per line, # comments, empty lines ignored.
func (r *Resolver) ReadConfig(dir string) (map[string]string, error) {
	p := filepath.Join(dir, cfgFileName)
	raw, err := afero.ReadFile(r.fs, p)
	if err != nil {
		return nil, err
	}

	data := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax in %s at line %d: %q", p, lineNum, line)
		}
		data[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}

	return data, nil
}

// ---------------------------------------------------------------------------
// Env - a resolved environment
// ---------------------------------------------------------------------------

// Env is a resolved virtual environment ready to launch from.
type Env struct {
	Dir          string
	BinDir       string
	ActivatePath string
	Interpreter  string
	Mode         Mode
	// Config holds pyvenv.cfg values; nil when the file is absent.
	Config map[string]string

	goos    string
	pathSep string
}

// Version returns the Python version recorded in pyvenv.cfg, if any.
func (e *Env) Version() string {
	if v := e.Config["version_info"]; v != "" {
		return v
	}
	return e.Config["version"]
}

// Prompt returns the environment's display name.
func (e *Env) Prompt() string {
	if p := e.Config["prompt"]; p != "" {
		return strings.Trim(p, `'"`)
	}
	return filepath.Base(e.Dir)
}

// Activate returns a copy of environ with the environment applied, the way
// the activation script would: VIRTUAL_ENV is set, the script directory is
// put first on PATH, and PYTHONHOME is dropped. environ is not modified.
func (e *Env) Activate(environ []string) []string {
	out := make([]string, 0, len(environ)+3)
	pathKey, pathVal := "PATH", ""

	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case e.keyIs(key, "PATH"):
			pathKey, pathVal = key, value
			continue
		case e.keyIs(key, "PYTHONHOME"), e.keyIs(key, "VIRTUAL_ENV"), e.keyIs(key, "VIRTUAL_ENV_PROMPT"):
			continue
		}
		out = append(out, kv)
	}

	path := e.BinDir
	if pathVal != "" {
		path += e.pathSep + pathVal
	}

	return append(out,
		pathKey+"="+path,
		"VIRTUAL_ENV="+e.Dir,
		"VIRTUAL_ENV_PROMPT="+e.Prompt(),
	)
}

// keyIs compares environment keys, ignoring case on Windows.
func (e *Env) keyIs(key, want string) bool {
	if e.goos == "windows" {
		return strings.EqualFold(key, want)
	}
	return key == want
}
