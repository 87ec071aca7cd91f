package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// WriteMarkdown writes s as a markdown document.
func WriteMarkdown(w io.Writer, s *Summary) error {
	md := markdown.NewMarkdown(w)

	md.H1("namesake summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(s.Documents)},
			{"Parsed", strconv.Itoa(s.Parsing)},
			{"Changed", strconv.Itoa(s.Changed)},
			{"Replacements", strconv.Itoa(s.Replacements)},
			{"Attributes updated", strconv.Itoa(s.Attributes)},
			{"Restored", strconv.Itoa(s.Restored)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"Generated", s.Generated.Format(generatedLayout)},
		},
	})
	md.PlainText("")

	if s.Replacements > 0 {
		writePieChart(md, s)
	}
	writeAlert(md, s)
	writeDocuments(md, s)

	return md.Build()
}

func writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Replacements by document"),
		piechart.WithShowData(true),
	)
	for _, r := range s.Results {
		if r.Err == nil && r.Metrics.ReplacementsMade > 0 {
			chart.LabelAndIntValue(r.Path, uint64(r.Metrics.ReplacementsMade))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeAlert(md *markdown.Markdown, s *Summary) {
	switch {
	case s.Failed > 0:
		md.Warningf("%d of %d document(s) could not be processed.", s.Failed, s.Documents)
	case s.Replacements == 0 && s.Restored == 0:
		md.Note("No dead names were found.")
	default:
		md.Tip("All documents were processed.")
	}
	md.PlainText("")
}

func writeDocuments(md *markdown.Markdown, s *Summary) {
	md.H2("Documents")
	md.PlainText("")

	if len(s.Results) == 0 {
		md.PlainText("No documents were processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.Results))
	for i, r := range s.Results {
		reason := "-"
		if r.Status.Reason != "" {
			reason = string(r.Status.Reason)
		}
		rows[i] = []string{
			"`" + r.Path + "`",
			reason,
			strconv.Itoa(r.Metrics.ReplacementsMade),
			strconv.Itoa(r.Metrics.AttributesUpdated),
			outcome(r),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Reason", "Replacements", "Attributes", "Result"},
		Rows:   rows,
	})
	md.PlainText("")

	if reasons := s.SortedReasons(); len(reasons) > 0 {
		md.H2("Scope decisions")
		md.PlainText("")
		items := make([]string, len(reasons))
		for i, r := range reasons {
			items[i] = string(r) + ": " + strconv.Itoa(s.Reasons[r])
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}
