package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-voicetype/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/voicetype/config.toml and is shared
by both launchers. Settings can also come from environment variables.

Supported settings:
  venv-dir    Virtual environment directory (env: VOICETYPE_VENV_DIR)
  script      Program to launch (env: VOICETYPE_SCRIPT)
  base-dir    Directory relative paths resolve against (env: VOICETYPE_BASE_DIR)`,
		Example: `  voicetype config set venv-dir ~/venvs/voice
  voicetype config get script
  voicetype config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Supported keys: venv-dir, script, base-dir.
Relative venv-dir and script values resolve against base-dir.`,
		Example: `  voicetype config set venv-dir .venv
  voicetype config set base-dir ~/apps/voice-typing`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  voicetype config get venv-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable fallbacks.`,
		Example: `  voicetype config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !config.IsValidKey(key) {
		return fmt.Errorf("%w %q (valid keys: %s)", ErrUnknownConfigKey, key, strings.Join(config.Keys, ", "))
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}
	if key == config.KeyBaseDir {
		value = config.ExpandPath(value)
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !config.IsValidKey(key) {
		return fmt.Errorf("%w %q (valid keys: %s)", ErrUnknownConfigKey, key, strings.Join(config.Keys, ", "))
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		value = env.Getenv(config.EnvVar(key))
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	for _, key := range config.Keys {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(config.EnvVar(key)); envVal != "" {
			data[key] = envVal + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	for _, key := range config.SortedKeys(data) {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}
	return nil
}
