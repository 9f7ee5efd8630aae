package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/alnah/go-voicetype/internal/launch"
	"github.com/alnah/go-voicetype/internal/venv"
)

// consoleWriter wraps w so ANSI colors render on legacy Windows consoles,
// and reports whether w is a terminal at all.
func consoleWriter(w io.Writer) (io.Writer, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return w, false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return w, false
	}
	return colorable.NewColorable(f), true
}

// printError writes err to w, in red on terminals, followed by a hint
// for the setup errors a user can fix.
func printError(w io.Writer, err error) {
	out, tty := consoleWriter(w)

	c := color.New(color.FgRed, color.Bold)
	if tty {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	_, _ = c.Fprintf(out, "Error: %v\n", err)
	if h := hint(err); h != "" {
		_, _ = fmt.Fprintln(out, h)
	}
}

// hint suggests a fix for setup errors.
func hint(err error) string {
	switch {
	case errors.Is(err, venv.ErrNotFound), errors.Is(err, venv.ErrNotVenv):
		return "Create the environment with: python -m venv .venv\n" +
			"or point to it with --venv, VOICETYPE_VENV_DIR or 'voicetype config set venv-dir <path>'."
	case errors.Is(err, venv.ErrNoActivate), errors.Is(err, venv.ErrNoInterpreter):
		return "The virtual environment looks incomplete. Recreate it with: python -m venv --clear .venv"
	case errors.Is(err, launch.ErrScriptNotFound):
		return "Point to the program with --script, VOICETYPE_SCRIPT or 'voicetype config set script <path>'."
	default:
		return ""
	}
}

// ReportError prints err unless it is an ExitError, whose outcome the user
// has already seen.
func ReportError(w io.Writer, err error) {
	var exitErr *ExitError
	if err == nil || errors.As(err, &exitErr) {
		return
	}
	printError(w, err)
}
