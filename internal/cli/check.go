package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-voicetype/internal/venv"
)

// checkResult is the outcome of one preflight check.
type checkResult struct {
	Name     string
	Path     string
	OK       bool
	Required bool
	Detail   string
}

// check is one preflight probe.
type check func() (checkResult, error)

// CheckCmd creates the check command.
// The env parameter provides injectable dependencies for testing.
func CheckCmd(env *Env) *cobra.Command {
	var opts launchOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the virtual environment and program can be launched",
		Long: `Verify everything both launchers need, without starting anything:
the virtual environment directory, its activation script, the console
and windowless interpreters, and the program itself.`,
		Example: `  voicetype check
  voicetype check --venv ~/venvs/voice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), env, opts)
		},
	}

	addLaunchFlags(cmd.Flags(), &opts)

	return cmd
}

// runCheck runs every probe concurrently and prints one line per probe,
// in a fixed order.
func runCheck(ctx context.Context, env *Env, opts launchOptions) error {
	cfg, err := resolvePaths(env, opts)
	if err != nil {
		return err
	}

	r := env.VenvResolver
	layout := r.Layout()

	checks := []check{
		fileCheck(r, "virtual environment", cfg.VenvDir, true),
		fileCheck(r, "activation script", filepath.Join(cfg.VenvDir, layout.Activate), true),
		fileCheck(r, "console interpreter", filepath.Join(cfg.VenvDir, layout.Interpreter(venv.Console)), true),
		fileCheck(r, "windowless interpreter", filepath.Join(cfg.VenvDir, layout.Interpreter(venv.Windowless)), true),
		fileCheck(r, "program", cfg.Script, true),
		pyvenvCheck(r, cfg.VenvDir),
	}

	results := make([]checkResult, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c()
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("check: %w", err)
	}

	failed := printChecks(env.Stdout, results)
	if failed > 0 {
		return fmt.Errorf("%w: %d problem(s) found", ErrCheckFailed, failed)
	}
	fmt.Fprintln(env.Stdout, "Ready to launch.")
	return nil
}

// printChecks writes the results as an aligned table and returns how many
// required checks failed.
func printChecks(w io.Writer, results []checkResult) int {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	failed := 0
	for _, res := range results {
		status := "ok"
		switch {
		case !res.OK && res.Required:
			status = "FAIL"
			failed++
		case !res.OK:
			status = "warn"
		}
		line := res.Path
		if res.Detail != "" {
			line += " (" + res.Detail + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", status, res.Name, line)
	}
	_ = tw.Flush()
	return failed
}

// exists reports whether path exists. Permission problems fail the check
// instead of aborting the run.
func exists(r VenvResolver, path string) (bool, string, error) {
	ok, err := r.Exists(path)
	if err != nil {
		if os.IsPermission(err) {
			return false, "permission denied", nil
		}
		return false, "", err
	}
	if !ok {
		return false, "not found", nil
	}
	return true, "", nil
}

func fileCheck(r VenvResolver, name, path string, required bool) check {
	return func() (checkResult, error) {
		ok, detail, err := exists(r, path)
		return checkResult{Name: name, Path: path, OK: ok, Required: required, Detail: detail}, err
	}
}

// pyvenvCheck reports the Python version recorded by the venv module.
// Environments made by other tools may lack pyvenv.cfg, so it is optional.
func pyvenvCheck(r VenvResolver, dir string) check {
	return func() (checkResult, error) {
		path := filepath.Join(dir, "pyvenv.cfg")
		cfg, err := r.ReadConfig(dir)
		if err != nil {
			detail := "not found"
			if !os.IsNotExist(err) {
				detail = err.Error()
			}
			return checkResult{Name: "pyvenv.cfg", Path: path, Detail: detail}, nil
		}

		version := cfg["version_info"]
		if version == "" {
			version = cfg["version"]
		}
		detail := "python " + version
		if version == "" {
			detail = "no version recorded"
		}
		return checkResult{Name: "pyvenv.cfg", Path: path, OK: true, Detail: detail}, nil
	}
}
