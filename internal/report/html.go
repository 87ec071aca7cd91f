package report

//go:generate templ generate

import (
	"context"
	"io"
)

const generatedLayout = "2006-01-02 15:04:05 MST"

type total struct {
	label string
	value int
}

func totals(s *Summary) []total {
	return []total{
		{"Documents", s.Documents},
		{"Parsed", s.Parsing},
		{"Changed", s.Changed},
		{"Replacements", s.Replacements},
		{"Attributes updated", s.Attributes},
		{"Restored", s.Restored},
		{"Failed", s.Failed},
	}
}

// WriteHTML renders the page for s to w.
func WriteHTML(ctx context.Context, w io.Writer, s *Summary) error {
	return HTML(s).Render(ctx, w)
}
