// Package types holds the shared result model of the lint engine: issues,
// severities, and the aggregated run report. It is imported both by the
// engine internals and by external consumers of the report, so it must stay
// free of engine dependencies.
package types

import (
	"go/token"
	"sort"
)

// Issue represents a single finding tied to a span in a source file.
type Issue struct {
	Rule       string
	Severity   Severity
	Filename   string
	Message    string
	Suggestion string
	Note       string
	Start      token.Position
	End        token.Position
}

// SortIssues orders issues by start line, start column, then rule ID.
// Dispatch can interleave emissions in non-span order (a rule may report on
// descendants before the walk ascends), so every finalized issue slice goes
// through this to keep output reproducible across runs.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Start.Line != b.Start.Line {
			return a.Start.Line < b.Start.Line
		}
		if a.Start.Column != b.Start.Column {
			return a.Start.Column < b.Start.Column
		}
		return a.Rule < b.Rule
	})
}

// DedupIssues removes exact (rule, span, message) repeats, keeping the first
// occurrence. Overlapping kind subscriptions can produce identical findings
// from a single traversal.
func DedupIssues(issues []Issue) []Issue {
	type key struct {
		rule      string
		message   string
		startLine int
		startCol  int
		endLine   int
		endCol    int
	}
	seen := make(map[key]struct{}, len(issues))
	out := issues[:0]
	for _, issue := range issues {
		k := key{
			rule:      issue.Rule,
			message:   issue.Message,
			startLine: issue.Start.Line,
			startCol:  issue.Start.Column,
			endLine:   issue.End.Line,
			endCol:    issue.End.Column,
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, issue)
	}
	return out
}

// MaxSeverity returns the highest severity present in issues, or SeverityOff
// for an empty slice.
func MaxSeverity(issues []Issue) Severity {
	max := SeverityOff
	for _, issue := range issues {
		if issue.Severity > max {
			max = issue.Severity
		}
	}
	return max
}
