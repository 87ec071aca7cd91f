package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/namesake/internal/pipeline"
	"github.com/conneroisu/namesake/internal/report"
)

// stdinSite is the site identity of a document read from stdin.
const stdinSite = "localhost/"

var rewriteCmd = &cobra.Command{
	Use:     "rewrite [files...]",
	Aliases: []string{"r"},
	Short:   "Replace dead names in HTML documents",
	Long: `Rewrite HTML documents so that configured dead names show the chosen
names instead. Without files the document is read from stdin and written to
stdout.

Files are rewritten in place unless --output names a directory. Each file is
scope-checked as localhost/<path> unless --url gives the site it is served
from.

Examples:
  namesake rewrite index.html
  namesake rewrite --url https://example.com/ -o out/ site/*.html
  namesake rewrite --summary --report report.html site/*.html
  curl -s https://example.com/ | namesake rewrite --url example.com`,
	Args: filesArgs(ValidateFileExists),
	RunE: runRewrite,
}

var (
	rewriteURL         string
	rewriteOutput      string
	rewriteConcurrency int
	rewriteSummary     bool
	rewriteReport      string
)

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().StringVarP(&rewriteURL, "url", "u", "", "site the documents are served from")
	rewriteCmd.Flags().StringVarP(&rewriteOutput, "output", "o", "", "directory for rewritten documents (default: in place)")
	rewriteCmd.Flags().IntVarP(&rewriteConcurrency, "concurrency", "c", pipeline.DefaultConcurrency, "documents rewritten in parallel")
	rewriteCmd.Flags().BoolVar(&rewriteSummary, "summary", false, "print a markdown summary")
	rewriteCmd.Flags().StringVar(&rewriteReport, "report", "", "write an HTML report to this file")

	AddFlagValidation(rewriteCmd, "url", ValidateURL)
	AddFlagValidation(rewriteCmd, "concurrency", ValidateConcurrency)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	r := pipeline.NewRewriter(cfg, pipeline.WithLogger(logger), pipeline.WithSite(rewriteURL))

	if len(args) == 0 {
		site := rewriteURL
		if site == "" {
			site = stdinSite
		}
		res, err := r.Rewrite(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), site)
		if err != nil {
			return err
		}
		res.Path = "-"
		return writeReports(cmd, []pipeline.Result{res}, cmd.ErrOrStderr())
	}

	results, err := r.RewriteAll(ctx, pipeline.Jobs(args, rewriteOutput), rewriteConcurrency)
	if err != nil {
		return err
	}
	if err := writeReports(cmd, results, cmd.OutOrStdout()); err != nil {
		return err
	}
	if failed := pipeline.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(results))
	}
	return nil
}

// writeReports writes the summary to summaryOut and the HTML report to its
// file, as requested by flags.
func writeReports(cmd *cobra.Command, results []pipeline.Result, summaryOut io.Writer) error {
	if !rewriteSummary && rewriteReport == "" {
		return nil
	}
	summary := report.Summarize(results, time.Now())

	if rewriteSummary {
		if err := report.WriteMarkdown(summaryOut, summary); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if rewriteReport != "" {
		f, err := os.Create(rewriteReport)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		if err := report.WriteHTML(cmd.Context(), f, summary); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
