package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
	"github.com/conneroisu/namesake/internal/pipeline"
	"github.com/conneroisu/namesake/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch [dirs...]",
	Aliases: []string{"w"},
	Short:   "Rewrite HTML documents as they change",
	Long: `Watch directories for HTML documents and rewrite each one in place when it
is created or modified. Hidden files, editor backups and hidden directories
are ignored. Rewriting is idempotent, so documents written by namesake do not
trigger further rewrites.

Examples:
  namesake watch                  # Watch the current directory
  namesake watch site/ public/    # Watch several directories
  namesake watch --initial=false  # Skip the rewrite of existing documents`,
	Args: filesArgs(ValidateDirExists),
	RunE: runWatch,
}

var (
	watchURL      string
	watchDebounce time.Duration
	watchInitial  bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchURL, "url", "u", "", "site the documents are served from")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "delay before a batch of changes is handled")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "rewrite existing documents before watching")
	AddFlagValidation(watchCmd, "url", ValidateURL)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := pipeline.NewRewriter(cfg, pipeline.WithLogger(logger), pipeline.WithSite(watchURL))

	fileWatcher, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.HTMLFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoBackupFilter)
	fileWatcher.AddHandler(watchHandler(r, cmd.OutOrStdout(), logger))

	for _, dir := range dirs {
		if err := fileWatcher.AddRecursive(dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", dir)
	}

	if watchInitial {
		files, err := htmlFiles(dirs)
		if err != nil {
			return err
		}
		if err := rewriteChanged(ctx, r, files, cmd.OutOrStdout(), logger); err != nil {
			return err
		}
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes... (Press Ctrl+C to stop)")

	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "Stopping file watcher")
	return nil
}

// watchHandler rewrites every document a batch of events leaves behind.
func watchHandler(r *pipeline.Rewriter, out io.Writer, logger logging.Logger) watcher.ChangeHandler {
	return func(ctx context.Context, events []watcher.ChangeEvent) error {
		var files []string
		for _, event := range events {
			if event.Exists() {
				files = append(files, event.Path)
			}
		}
		if len(files) == 0 {
			return nil
		}
		return rewriteChanged(ctx, r, files, out, logger)
	}
}

func rewriteChanged(ctx context.Context, r *pipeline.Rewriter, files []string, out io.Writer, logger logging.Logger) error {
	results, err := r.RewriteAll(ctx, pipeline.Jobs(files, ""), pipeline.DefaultConcurrency)
	if err != nil {
		return err
	}
	for _, res := range results {
		switch {
		case res.Err != nil && !errors.IsRecoverable(res.Err):
			fmt.Fprintf(out, "Failed %s: %v\n", res.Path, res.Err)
		case res.Err != nil:
			logger.Debug(ctx, "skipping document until its next change", "path", res.Path)
		case res.Changed:
			fmt.Fprintf(out, "Rewrote %s (%d replacement(s))\n", res.Path, res.Metrics.ReplacementsMade)
		}
	}
	return nil
}

// htmlFiles lists the documents under dirs that the watcher would accept.
func htmlFiles(dirs []string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != dir && !watcher.NoHiddenFilter(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if watcher.HTMLFilter(path) && watcher.NoHiddenFilter(path) && watcher.NoBackupFilter(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
