// Command voicetypew starts the voice-typing program from its virtual
// environment without a console window and exits immediately.
//
// On Windows, build it as a GUI-subsystem binary so no console flashes:
//
//	go build -ldflags -H=windowsgui ./cmd/voicetypew
//
// It never writes to stdout or stderr. Failures go to launcher.log in the
// configuration directory and are reflected in the exit status.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/alnah/go-voicetype/internal/cli"
	"github.com/alnah/go-voicetype/internal/config"
)

func main() {
	wd, _ := os.Getwd()
	config.LoadDotEnv(config.ExecutableDir(), wd)

	env := cli.NewEnv(
		cli.WithStdout(io.Discard),
		cli.WithStderr(io.Discard),
	)

	rootCmd := cli.SilentCmd(env)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// Launch failures are already logged; flag and argument errors are not.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			log, closer := env.LogFile(false)
			log.WithError(err).Error("invalid invocation")
			_ = closer.Close()
		}
		os.Exit(cli.ExitCode(err))
	}
}
