// Package cli wires the engine to the command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/providers"
	"github.com/oxhq/rubric/providers/ruby"
)

var log = commonlog.GetLogger("rubric.cli")

// Exit codes.
const (
	ExitClean    = 0
	ExitOffenses = 1
	ExitError    = 2
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// options are the flags of the root command.
type options struct {
	autocorrect   bool
	dryRun        bool
	diff          bool
	format        string
	configPath    string
	only          []string
	jobs          int
	maxIterations int
	ledgerDSN     string
	noColor       bool
	verbose       int
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	opts   options
}

// NewRootCmd builds the rubric command tree writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "rubric [paths...]",
		Short: "Inspect and autocorrect Ruby source",
		Long: `rubric runs its cops over Ruby files and reports their offenses. With
--autocorrect it rewrites the files until no correctable offense is left.

Directories are walked using the AllCops Include and Exclude lists of the
configuration. Without paths the current directory is inspected.

Exit Codes:
  0 - No offenses, or every offense was corrected
  1 - Offenses remain
  2 - Configuration or usage error, or a file could not be processed`,
		Args:          cobra.ArbitraryArgs,
		RunE:          a.runInspect,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(a.opts.verbose, nil)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.BoolVarP(&a.opts.autocorrect, "autocorrect", "a", false, "Correct offenses in place")
	f.BoolVar(&a.opts.dryRun, "dry-run", false, "Show the corrections as a diff without writing")
	f.BoolVar(&a.opts.diff, "diff", false, "Include a unified diff of every corrected file")
	f.StringVarP(&a.opts.format, "format", "f", "text", "Output format: text, json")
	f.StringSliceVar(&a.opts.only, "only", nil, "Run only these cops (comma-separated)")
	f.IntVarP(&a.opts.jobs, "jobs", "j", 0, "Files inspected in parallel (0 = GOMAXPROCS)")
	f.IntVar(&a.opts.maxIterations, "max-iterations", 0, "Autocorrect passes per file")
	f.StringVar(&a.opts.ledgerDSN, "ledger", "", "Record the run in this sqlite file or libsql URL")
	f.BoolVar(&a.opts.noColor, "no-color", false, "Disable colored output")

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.opts.configPath, "config", "c", "", "Configuration file (default: discovered .rubric.yml)")
	pf.CountVarP(&a.opts.verbose, "verbose", "v", "Log more (repeat for debug output)")

	cmd.AddCommand(
		a.newCopsCmd(),
		a.newHistoryCmd(),
		a.newLSPCmd(),
		a.newVersionCmd(),
	)
	return cmd
}

// Execute runs the command line in args and returns the exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitClean
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}

// usageError fails with ExitError.
func usageError(format string, args ...any) error {
	return &exitError{code: ExitError, err: fmt.Errorf(format, args...)}
}

// failure fails with ExitError, naming the error code when there is one.
func failure(err error) error {
	if code := model.CodeOf(err); code != model.ECUnknown && code != model.ECNone {
		err = fmt.Errorf("%w [%s]", err, code)
	}
	return &exitError{code: ExitError, err: err}
}

// builtinProviders registers every language the engine can parse.
func builtinProviders() *providers.Registry {
	r := providers.NewRegistry()
	r.Register(ruby.New())
	return r
}

// rubyProvider returns the provider the language server parses with. Editor
// buffers may have no file name, so it is not looked up by path.
func rubyProvider() providers.Provider {
	p, ok := builtinProviders().Get("ruby")
	if !ok {
		panic("ruby provider is not registered")
	}
	return p
}
