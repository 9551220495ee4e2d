package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxhq/rubric/core"
	"github.com/oxhq/rubric/db"
	"github.com/oxhq/rubric/internal/config"
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/ledger"
	"github.com/oxhq/rubric/internal/report"
	"github.com/oxhq/rubric/internal/runner"
	"github.com/oxhq/rubric/internal/writer"
	"github.com/oxhq/rubric/providers"
)

func (a *app) runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) == 0 {
		args = []string{"."}
	}

	cfg, err := a.loadConfig(cmd, args[0])
	if err != nil {
		return failure(err)
	}
	formatter, err := report.New(a.opts.format, report.Options{
		Color: !a.opts.noColor,
		Diff:  a.opts.diff || a.opts.dryRun,
	})
	if err != nil {
		return usageError("%v", err)
	}

	reg := builtinProviders()
	files, skipped, err := expandPaths(ctx, cfg, reg, args)
	if err != nil {
		return failure(err)
	}
	for _, path := range skipped {
		fmt.Fprintf(a.stderr, "%s: skipped, %s\n", path, providers.ErrNoProvider)
	}

	autocorrect := a.opts.autocorrect || a.opts.dryRun
	var sink writer.Writer
	opts := []runner.Option{runner.WithAutocorrect(autocorrect)}
	switch {
	case a.opts.dryRun:
		sink = writer.NewDryRun()
		opts = append(opts, runner.WithSink(sink))
	case autocorrect:
		disk := writer.NewDisk(nil)
		sink = disk
		opts = append(opts, runner.WithSink(disk), runner.WithReader(disk.ReadFile))
	}

	cop.Freeze()
	r, err := runner.FromConfig(cfg, cop.Default, reg, a.opts.only, opts...)
	if err != nil {
		return failure(err)
	}

	started := time.Now()
	results, runErr := r.RunFiles(ctx, files)
	finished := time.Now()
	if p, ok := reg.Get("ruby"); ok {
		log.Debugf("ruby parser pool: %+v", p.Stats())
	}

	if err := formatter.Format(a.stdout, results); err != nil {
		return failure(err)
	}
	if sink != nil && a.opts.format != "json" {
		fmt.Fprint(a.stderr, sink.Summary())
	}

	if cfg.LedgerDSN != "" {
		if err := a.record(ctx, cfg, r, ledger.Run{
			Started:     started,
			Finished:    finished,
			Autocorrect: autocorrect,
			Results:     results,
		}); err != nil {
			return failure(fmt.Errorf("recording run: %w", err))
		}
	}

	if runErr != nil {
		return failure(runErr)
	}
	return exitFor(results)
}

// loadConfig resolves the configuration for a run rooted at first and
// applies the flag overrides.
func (a *app) loadConfig(cmd *cobra.Command, first string) (*config.Config, error) {
	dir := first
	if info, err := os.Stat(first); err == nil && !info.IsDir() {
		dir = filepath.Dir(first)
	}
	cfg, err := config.Resolve(a.opts.configPath, dir)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("jobs") {
		cfg.AllCops.Jobs = a.opts.jobs
	}
	if flags.Changed("max-iterations") {
		cfg.AllCops.MaxIterations = a.opts.maxIterations
	}
	if flags.Changed("ledger") {
		cfg.LedgerDSN = a.opts.ledgerDSN
	}
	return cfg, nil
}

func (a *app) record(ctx context.Context, cfg *config.Config, r *runner.Runner, run ledger.Run) error {
	l, err := ledger.Open(cfg.LedgerDSN, db.Options{AuthToken: cfg.LibSQLAuthToken})
	if err != nil {
		return err
	}
	defer l.Close()

	for _, inst := range r.Cops() {
		run.Cops = append(run.Cops, inst.Cop.Name())
	}
	id, err := l.Record(ctx, run)
	if err != nil {
		return err
	}
	log.Infof("recorded run %s", id)
	return nil
}

// expandPaths turns the command line paths into the files to inspect.
// Files named explicitly bypass Include and Exclude; directories are walked.
// Either way a file needs a provider in reg, and the rest are returned as
// skipped.
func expandPaths(ctx context.Context, cfg *config.Config, reg *providers.Registry, args []string) (files, skipped []string, err error) {
	walker := core.NewFileWalker()
	seen := make(map[string]bool)
	add := func(path string) {
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		seen[path] = true
		if _, ok := reg.ForPath(path); !ok {
			skipped = append(skipped, path)
			return
		}
		files = append(files, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, nil, usageError("%s: no such file or directory", arg)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		found, err := walker.Collect(ctx, core.FileScope{
			Path:    arg,
			Include: slices.Clone(cfg.AllCops.Include),
			Exclude: slices.Clone(cfg.AllCops.Exclude),
		})
		if err != nil {
			return nil, nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, skipped, nil
}

// exitFor maps the results of a finished run to an exit code.
func exitFor(results []*runner.FileResult) error {
	code := ExitClean
	for _, res := range results {
		switch res.Status {
		case runner.StatusFailed:
			return &exitError{code: ExitError}
		case runner.StatusOffenses, runner.StatusNonConvergence:
			code = ExitOffenses
		}
	}
	if code == ExitClean {
		return nil
	}
	return &exitError{code: code}
}
