package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alnah/go-voicetype/internal/config"
	"github.com/alnah/go-voicetype/internal/launch"
	"github.com/alnah/go-voicetype/internal/logging"
	"github.com/alnah/go-voicetype/internal/pause"
	"github.com/alnah/go-voicetype/internal/venv"
)

// launchOptions holds the flags shared by both launchers.
// Every flag is optional: a double-clicked launcher gets none.
type launchOptions struct {
	venvDir string
	script  string
	baseDir string
	debug   bool
	noPause bool
}

// addLaunchFlags registers the shared launch flags on fs.
func addLaunchFlags(fs *pflag.FlagSet, o *launchOptions) {
	fs.StringVar(&o.venvDir, "venv", "", "virtual environment directory (default \".venv\")")
	fs.StringVar(&o.script, "script", "", "program to launch (default \"gui_voice_typing.py\")")
	fs.StringVar(&o.baseDir, "base-dir", "", "directory relative paths resolve against (default: launcher's directory)")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging (env: "+logging.EnvDebug+")")
}

// overrides returns the flag values as a config layer.
func (o launchOptions) overrides() config.Config {
	return config.Config{VenvDir: o.venvDir, Script: o.script, BaseDir: o.baseDir}
}

// debugEnabled combines the flag and the environment switch.
func (o launchOptions) debugEnabled(env *Env) bool {
	return o.debug || logging.DebugEnabled(env.Getenv)
}

// programArgs accepts arguments only after "--", so a mistyped subcommand
// is reported instead of being forwarded to the program.
func programArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 && cmd.ArgsLenAtDash() != 0 {
		return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

// plan is a fully resolved launch.
type plan struct {
	cfg  config.Config
	venv *venv.Env
	spec launch.Spec
}

// resolvePaths merges configuration layers and returns the effective config
// with absolute-or-base-relative paths.
// Precedence: flags, then config file, then environment, then defaults.
func resolvePaths(env *Env, opts launchOptions) (config.Config, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.Override(opts.overrides()).WithDefaults(env.ExecutableDir())

	cfg.BaseDir = config.ResolvePath("", cfg.BaseDir)
	cfg.VenvDir = config.ResolvePath(cfg.BaseDir, cfg.VenvDir)
	cfg.Script = config.ResolvePath(cfg.BaseDir, cfg.Script)
	return cfg, nil
}

// preparePlan resolves configuration and the virtual environment, and
// builds the activated launch spec.
func preparePlan(env *Env, opts launchOptions, args []string, mode venv.Mode, log logrus.FieldLogger) (*plan, error) {
	cfg, err := resolvePaths(env, opts)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"venv":     cfg.VenvDir,
		"script":   cfg.Script,
		"base_dir": cfg.BaseDir,
		"mode":     mode,
	}).Debug("resolved configuration")

	ve, err := env.VenvResolver.Resolve(cfg.VenvDir, mode)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"interpreter": ve.Interpreter,
		"activate":    ve.ActivatePath,
		"version":     ve.Version(),
	}).Debug("resolved virtual environment")

	return &plan{
		cfg:  cfg,
		venv: ve,
		spec: launch.Spec{
			Interpreter: ve.Interpreter,
			Script:      cfg.Script,
			Args:        args,
			Dir:         cfg.BaseDir,
			Env:         ve.Activate(env.Environ()),
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Interactive launcher
// ---------------------------------------------------------------------------

// InteractiveCmd creates the interactive launcher's root command.
// The env parameter provides injectable dependencies for testing.
func InteractiveCmd(env *Env) *cobra.Command {
	var opts launchOptions

	cmd := &cobra.Command{
		Use:   "voicetype [flags] [-- program args]",
		Short: "Run the voice-typing program in this console",
		Long: `Run the voice-typing program from its virtual environment, attached to
this console so its output and errors stay visible.

When the program exits, the window stays open until a key is pressed.

Paths come from flags, then ~/.config/voicetype/config.toml, then the
VOICETYPE_VENV_DIR, VOICETYPE_SCRIPT and VOICETYPE_BASE_DIR variables
(a .env file next to the launcher is honored), then the defaults
.venv and gui_voice_typing.py next to the launcher.`,
		Example: `  voicetype
  voicetype --venv ~/venvs/voice
  voicetype --no-pause -- --model small`,
		Args: programArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), env, opts, args)
		},
	}

	addLaunchFlags(cmd.Flags(), &opts)
	cmd.Flags().BoolVar(&opts.noPause, "no-pause", false, "exit without waiting for a key")

	return cmd
}

// runInteractive resolves, runs the program attached, and always reaches
// the pause step, whatever happened before it.
func runInteractive(ctx context.Context, env *Env, opts launchOptions, args []string) error {
	log := logging.New(env.Stderr, opts.debugEnabled(env))

	err := interactive(ctx, env, opts, args, log)

	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		printError(env.Stderr, err)
		err = &ExitError{Code: ExitCode(err), Err: err}
	}

	if !opts.noPause {
		if perr := env.Pauser.Wait(pause.DefaultPrompt); perr != nil {
			log.WithError(perr).Debug("pause")
		}
	}

	return err
}

// interactive is the launch itself. A non-zero program exit is returned as
// an ExitError carrying the program's status.
func interactive(ctx context.Context, env *Env, opts launchOptions, args []string, log logrus.FieldLogger) error {
	p, err := preparePlan(env, opts, args, venv.Console, log)
	if err != nil {
		return err
	}

	launcher := env.LauncherFactory.NewLauncher(env.Stdin, env.Stdout, env.Stderr, log)

	shield, runCtx := env.ShieldFactory.NewShield(ctx)
	code, err := launcher.Run(runCtx, p.spec)
	aborted := shield.Aborted()
	shield.Stop()

	if aborted {
		return &ExitError{Code: ExitInterrupt}
	}
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Silent launcher
// ---------------------------------------------------------------------------

// SilentCmd creates the silent launcher's root command.
// The env parameter provides injectable dependencies for testing.
func SilentCmd(env *Env) *cobra.Command {
	var opts launchOptions

	cmd := &cobra.Command{
		Use:   "voicetypew [flags] [-- program args]",
		Short: "Start the voice-typing program without a console window",
		Long: `Start the voice-typing program from its virtual environment with the
windowless interpreter, detached from the launcher, and exit at once.

Nothing is ever written to the console. Failures are recorded in
~/.config/voicetype/launcher.log.`,
		Args: programArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSilent(cmd.Context(), env, opts, args)
		},
	}

	addLaunchFlags(cmd.Flags(), &opts)

	return cmd
}

// runSilent starts the program detached. Every failure is logged to the
// file logger only and returned as an ExitError so main stays quiet.
func runSilent(ctx context.Context, env *Env, opts launchOptions, args []string) error {
	log, closer := env.LogFile(opts.debugEnabled(env))
	defer func() { _ = closer.Close() }()

	p, err := preparePlan(env, opts, args, venv.Windowless, log)
	if err != nil {
		log.WithError(err).Error("launch failed")
		return &ExitError{Code: ExitCode(err), Err: err}
	}

	launcher := env.LauncherFactory.NewLauncher(nil, nil, nil, log)
	if _, err := launcher.Start(ctx, p.spec); err != nil {
		log.WithError(err).Error("launch failed")
		return &ExitError{Code: ExitCode(err), Err: err}
	}
	return nil
}
