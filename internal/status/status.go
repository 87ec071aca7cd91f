// Package status describes whether a page is being rewritten and why, and
// renders that description for people and tools.
package status

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/namesake/internal/scope"
)

// Status is the parsing status of one site.
type Status struct {
	IsParsing  bool         `json:"isParsing" yaml:"isParsing"`
	Reason     scope.Reason `json:"reason" yaml:"reason"`
	AllowMatch *string      `json:"allowMatch" yaml:"allowMatch"`
	BlockMatch *string      `json:"blockMatch" yaml:"blockMatch"`
	Site       string       `json:"site" yaml:"site"`
	Timestamp  int64        `json:"timestamp" yaml:"timestamp"`
}

// FromDecision builds the status reported for site at now.
func FromDecision(d scope.Decision, site string, now time.Time) Status {
	return Status{
		IsParsing:  d.ShouldParse,
		Reason:     d.Reason,
		AllowMatch: d.AllowMatch,
		BlockMatch: d.BlockMatch,
		Site:       site,
		Timestamp:  now.UnixMilli(),
	}
}

// Time returns the timestamp as a time.Time.
func (s Status) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want text, json, yaml or markdown)", name)
}

// Write renders s to w in the given format.
func Write(w io.Writer, s Status, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		return writeMarkdown(w, s)
	case FormatText, "":
		_, err := io.WriteString(w, Text(s)+"\n")
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Text is a one-line summary such as
// "example.com/: not parsing (blocked_by_blocklist, block: example.com)".
func Text(s Status) string {
	state := "parsing"
	if !s.IsParsing {
		state = "not parsing"
	}
	details := []string{string(s.Reason)}
	if s.AllowMatch != nil {
		details = append(details, "allow: "+*s.AllowMatch)
	}
	if s.BlockMatch != nil {
		details = append(details, "block: "+*s.BlockMatch)
	}
	return fmt.Sprintf("%s: %s (%s)", s.Site, state, strings.Join(details, ", "))
}

func writeMarkdown(w io.Writer, s Status) error {
	md := markdown.NewMarkdown(w)
	md.H2("Parsing status")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + s.Site + "`"},
			{"Parsing", yesNo(s.IsParsing)},
			{"Reason", string(s.Reason)},
			{"Allow match", orNone(s.AllowMatch)},
			{"Block match", orNone(s.BlockMatch)},
			{"Checked", s.Time().UTC().Format(time.RFC3339)},
		},
	})
	md.PlainText("")
	if s.IsParsing {
		md.Tip("Dead names on this site are replaced.")
	} else {
		md.Note("Dead names on this site are left as they are.")
	}
	return md.Build()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orNone(s *string) string {
	if s == nil {
		return "none"
	}
	return "`" + *s + "`"
}
