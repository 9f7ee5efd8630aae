// Command voicetype runs the voice-typing program from its virtual
// environment in the current console, then waits for a key so the window
// stays open long enough to read the program's output.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-voicetype/internal/cli"
	"github.com/alnah/go-voicetype/internal/config"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// .env next to the launcher, then in the working directory.
	wd, _ := os.Getwd()
	config.LoadDotEnv(config.ExecutableDir(), wd)

	// Ctrl+C is handled by the launch itself so the program, not the
	// launcher, decides how to stop.
	ctx := context.Background()

	env := cli.DefaultEnv()

	rootCmd := cli.InteractiveCmd(env)
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)
	// Silence Cobra's default error/usage printing; we handle it ourselves.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(cli.CheckCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}
