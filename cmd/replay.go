package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/feed"
	"github.com/conneroisu/namesake/internal/observer"
	"github.com/conneroisu/namesake/internal/pipeline"
	"github.com/conneroisu/namesake/internal/session"
)

var replayCmd = &cobra.Command{
	Use:   "replay <page.html> <feed.jsonl>",
	Short: "Replay recorded DOM mutations against a live document",
	Long: `Load a page into a live session, apply the configuration, then replay a
JSON-lines feed of DOM mutations. Mutations between two frame records are
handled in one pass, the way a browser batches them. The final document is
written to stdout and the pass statistics to stderr.

Feed records look like:
  {"op":"insert","xpath":"/html/body","html":"<p>Hi Ann</p>"}
  {"op":"text","xpath":"/html/body/p[1]/text()","value":"Ann again"}
  {"op":"frame"}

Examples:
  namesake replay --url https://example.com/ page.html feed.jsonl`,
	Args: cobra.ExactArgs(2),
	RunE: runReplay,
}

var (
	replayURL   string
	replayQuiet bool
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayURL, "url", "u", "", "site the page is served from (default: localhost/<page>)")
	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "do not print the final document")
	AddFlagValidation(replayCmd, "url", ValidateURL)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	pagePath, feedPath := args[0], args[1]

	page, err := os.Open(pagePath)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileNotFound, "cannot open page").WithFile(pagePath)
	}
	doc, err := dom.Parse(page)
	_ = page.Close()
	if err != nil {
		return err
	}

	feedFile, err := os.Open(feedPath)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileNotFound, "cannot open feed").WithFile(feedPath)
	}
	records, err := feed.Decode(feedFile)
	_ = feedFile.Close()
	if err != nil {
		return err
	}

	site := replayURL
	if site == "" {
		site = pipeline.SiteForPath(pagePath)
	}
	sched := observer.NewManualScheduler()
	s := session.New(doc, site, session.WithLogger(logger), session.WithScheduler(sched))
	defer s.Close()

	st, err := s.Configure(ctx, cfg)
	if err != nil {
		return err
	}
	initial := s.Metrics()

	stats, err := feed.Replay(ctx, records, s.Mutate, sched.Flush, logger)
	if err != nil {
		return err
	}

	if !replayQuiet {
		var renderErr error
		s.Mutate(func(d *dom.Document) { renderErr = d.Render(cmd.OutOrStdout()) })
		if renderErr != nil {
			return renderErr
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	final := s.Metrics()
	fmt.Fprintf(cmd.ErrOrStderr(), "status: %s\n", st.Reason)
	fmt.Fprintf(cmd.ErrOrStderr(), "records: %d applied, %d failed, %d frame(s)\n", stats.Applied, stats.Failed, stats.Frames)
	fmt.Fprintf(cmd.ErrOrStderr(), "passes: %d\n", s.Passes())
	fmt.Fprintf(cmd.ErrOrStderr(), "replacements: %d initial, %d from mutations\n",
		initial.ReplacementsMade, final.ReplacementsMade-initial.ReplacementsMade)
	return nil
}
