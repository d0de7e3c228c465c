// Package formatter renders lint reports, either as colorized text with
// code excerpts or as JSON for tooling.
package formatter

import (
	"fmt"
	"strings"
	"time"

	tt "github.com/gnoverse/glint/pkg/types"
)

// SourceLines returns the lines of one analyzed file so issues can excerpt
// code. Returning nil degrades the output to positions without snippets.
type SourceLines func(path string) []string

// Format renders one file's issues in report order.
func Format(issues []tt.Issue, lines []string) string {
	var b strings.Builder
	for _, issue := range issues {
		b.WriteString(buildIssue(issue, lines))
	}
	return b.String()
}

// FormatReport renders every file with findings followed by a summary line.
func FormatReport(report *tt.Report, load SourceLines) string {
	var b strings.Builder
	for _, fr := range report.Files {
		if len(fr.Issues) == 0 {
			continue
		}
		var lines []string
		if load != nil {
			lines = load(fr.Path)
		}
		b.WriteString(Format(fr.Issues, lines))
	}
	b.WriteString(summaryLine(report.Summary, report.Duration))
	return b.String()
}

func summaryLine(s tt.Summary, d time.Duration) string {
	var counts []string
	if s.Errors > 0 {
		counts = append(counts, errorStyle.Sprintf("%d %s", s.Errors, plural(s.Errors, "error")))
	}
	if s.Warnings > 0 {
		counts = append(counts, warningStyle.Sprintf("%d %s", s.Warnings, plural(s.Warnings, "warning")))
	}
	if s.Notes > 0 {
		counts = append(counts, noteStyle.Sprintf("%d %s", s.Notes, plural(s.Notes, "note")))
	}

	found := "no issues"
	if len(counts) > 0 {
		found = strings.Join(counts, ", ")
	}

	out := fmt.Sprintf("%s found in %d %s", found, s.Files, plural(s.Files, "file"))
	if s.CacheHits > 0 {
		out += fmt.Sprintf(" (%d from cache)", s.CacheHits)
	}
	return out + fmt.Sprintf(" in %s\n", d.Round(time.Millisecond))
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
