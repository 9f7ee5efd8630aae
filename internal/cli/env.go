package cli

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-voicetype/internal/config"
	"github.com/alnah/go-voicetype/internal/interrupt"
	"github.com/alnah/go-voicetype/internal/launch"
	"github.com/alnah/go-voicetype/internal/logging"
	"github.com/alnah/go-voicetype/internal/pause"
	"github.com/alnah/go-voicetype/internal/venv"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdin         io.Reader
	Stdout        io.Writer
	Stderr        io.Writer
	Getenv        func(string) string
	Environ       func() []string
	ExecutableDir func() string

	// Collaborators
	VenvResolver    VenvResolver
	ConfigLoader    ConfigLoader
	LauncherFactory LauncherFactory
	Pauser          Pauser
	ShieldFactory   ShieldFactory
	// LogFile opens the silent launcher's file logger.
	LogFile func(debug bool) (logrus.FieldLogger, io.Closer)
}

// VenvResolver locates virtual environments.
type VenvResolver interface {
	Resolve(dir string, mode venv.Mode) (*venv.Env, error)
	Exists(path string) (bool, error)
	ReadConfig(dir string) (map[string]string, error)
	Layout() venv.Layout
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// Launcher starts the target program.
type Launcher interface {
	Run(ctx context.Context, spec launch.Spec) (int, error)
	Start(ctx context.Context, spec launch.Spec) (int, error)
}

// LauncherFactory creates launchers bound to the command's streams and logger.
type LauncherFactory interface {
	NewLauncher(stdin io.Reader, stdout, stderr io.Writer, log logrus.FieldLogger) Launcher
}

// Pauser blocks until the user presses a key.
type Pauser interface {
	Wait(prompt string) error
}

// Shield keeps Ctrl+C from killing the launcher while a child runs.
type Shield interface {
	Aborted() bool
	Stop()
}

// ShieldFactory installs a Shield and returns the context the child runs under.
type ShieldFactory interface {
	NewShield(ctx context.Context) (Shield, context.Context)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdin sets the stdin reader.
func WithStdin(r io.Reader) EnvOption {
	return func(e *Env) { e.Stdin = r }
}

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithEnviron sets the source of the environment passed to children.
func WithEnviron(fn func() []string) EnvOption {
	return func(e *Env) { e.Environ = fn }
}

// WithExecutableDir sets the default base directory provider.
func WithExecutableDir(fn func() string) EnvOption {
	return func(e *Env) { e.ExecutableDir = fn }
}

// WithVenvResolver sets the virtual environment resolver.
func WithVenvResolver(r VenvResolver) EnvOption {
	return func(e *Env) { e.VenvResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithLauncherFactory sets the launcher factory.
func WithLauncherFactory(f LauncherFactory) EnvOption {
	return func(e *Env) { e.LauncherFactory = f }
}

// WithPauser sets the pauser.
func WithPauser(p Pauser) EnvOption {
	return func(e *Env) { e.Pauser = p }
}

// WithShieldFactory sets the Ctrl+C shield factory.
func WithShieldFactory(f ShieldFactory) EnvOption {
	return func(e *Env) { e.ShieldFactory = f }
}

// WithLogFile sets the silent launcher's logger factory.
func WithLogFile(fn func(debug bool) (logrus.FieldLogger, io.Closer)) EnvOption {
	return func(e *Env) { e.LogFile = fn }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		Getenv:          os.Getenv,
		Environ:         os.Environ,
		ExecutableDir:   config.ExecutableDir,
		VenvResolver:    venv.NewResolver(),
		ConfigLoader:    &defaultConfigLoader{},
		LauncherFactory: &defaultLauncherFactory{},
		Pauser:          pause.New(pause.WithInput(os.Stdin), pause.WithOutput(os.Stdout)),
		ShieldFactory:   &defaultShieldFactory{},
		LogFile:         defaultLogFile,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultLauncherFactory implements LauncherFactory using the launch package.
type defaultLauncherFactory struct{}

func (defaultLauncherFactory) NewLauncher(stdin io.Reader, stdout, stderr io.Writer, log logrus.FieldLogger) Launcher {
	return launch.NewRunner(
		launch.WithStdio(stdin, stdout, stderr),
		launch.WithLogger(log),
	)
}

// defaultShieldFactory implements ShieldFactory using the interrupt package.
type defaultShieldFactory struct{}

func (defaultShieldFactory) NewShield(ctx context.Context) (Shield, context.Context) {
	return interrupt.NewHandler(ctx)
}

// defaultLogFile logs to the config directory.
func defaultLogFile(debug bool) (logrus.FieldLogger, io.Closer) {
	dir, _ := config.Dir()
	return logging.NewFile(dir, debug)
}

// Compile-time interface verification.
var (
	_ VenvResolver    = (*venv.Resolver)(nil)
	_ ConfigLoader    = (*defaultConfigLoader)(nil)
	_ Launcher        = (*launch.Runner)(nil)
	_ LauncherFactory = (*defaultLauncherFactory)(nil)
	_ Pauser          = (*pause.Pauser)(nil)
	_ Shield          = (*interrupt.Handler)(nil)
	_ ShieldFactory   = (*defaultShieldFactory)(nil)
)
