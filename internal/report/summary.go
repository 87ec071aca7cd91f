// Package report summarizes a batch of rewritten documents as markdown or as
// a standalone HTML page.
package report

import (
	"sort"
	"time"

	"github.com/conneroisu/namesake/internal/pipeline"
	"github.com/conneroisu/namesake/internal/scope"
)

// Summary aggregates the results of a batch.
type Summary struct {
	Documents    int
	Parsing      int
	Changed      int
	Failed       int
	Replacements int
	Attributes   int
	Restored     int
	Reasons      map[scope.Reason]int
	Results      []pipeline.Result
	Generated    time.Time
}

// Summarize aggregates results, generated at now.
func Summarize(results []pipeline.Result, now time.Time) *Summary {
	s := &Summary{
		Documents: len(results),
		Reasons:   make(map[scope.Reason]int),
		Results:   results,
		Generated: now,
	}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		if r.Status.IsParsing {
			s.Parsing++
		}
		if r.Changed {
			s.Changed++
		}
		if r.Status.Reason != "" {
			s.Reasons[r.Status.Reason]++
		}
		s.Replacements += r.Metrics.ReplacementsMade
		s.Attributes += r.Metrics.AttributesUpdated
		s.Restored += r.Restored
	}
	return s
}

// SortedReasons returns the reasons seen, most frequent first.
func (s *Summary) SortedReasons() []scope.Reason {
	reasons := make([]scope.Reason, 0, len(s.Reasons))
	for r := range s.Reasons {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if s.Reasons[reasons[i]] != s.Reasons[reasons[j]] {
			return s.Reasons[reasons[i]] > s.Reasons[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})
	return reasons
}

func outcome(r pipeline.Result) string {
	switch {
	case r.Err != nil:
		return "error: " + r.Err.Error()
	case r.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}
