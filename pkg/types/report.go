package types

import (
	"sort"
	"time"
)

// FileResult holds the finalized issues of one analyzed file.
type FileResult struct {
	Path      string
	Issues    []Issue
	FromCache bool
}

// Summary aggregates per-severity counts for one run.
type Summary struct {
	Files     int
	Errors    int
	Warnings  int
	Notes     int
	CacheHits int
}

// Total returns the number of issues across all severities.
func (s Summary) Total() int {
	return s.Errors + s.Warnings + s.Notes
}

// Report is the aggregated output of one full run. It is assembled once all
// workers finish and is read-only afterwards.
type Report struct {
	Files     []FileResult
	Summary   Summary
	Duration  time.Duration
	CreatedAt time.Time
}

// NewReport assembles per-file results into a report. Files are re-sorted by
// path so the report content does not depend on worker completion order.
func NewReport(files []FileResult, duration time.Duration) *Report {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	report := &Report{
		Files:     files,
		Duration:  duration,
		CreatedAt: time.Now(),
	}
	report.Summary.Files = len(files)
	for _, fr := range files {
		if fr.FromCache {
			report.Summary.CacheHits++
		}
		for _, issue := range fr.Issues {
			switch issue.Severity {
			case SeverityError:
				report.Summary.Errors++
			case SeverityWarning:
				report.Summary.Warnings++
			case SeverityNote:
				report.Summary.Notes++
			}
		}
	}
	return report
}

// AllIssues flattens the report in file order, preserving per-file ordering.
func (r *Report) AllIssues() []Issue {
	var all []Issue
	for _, fr := range r.Files {
		all = append(all, fr.Issues...)
	}
	return all
}

// HasIssuesAtOrAbove reports whether any issue reaches the given severity.
// The CLI translates this into the process exit code.
func (r *Report) HasIssuesAtOrAbove(min Severity) bool {
	if min == SeverityOff {
		return r.Summary.Total() > 0
	}
	for _, fr := range r.Files {
		for _, issue := range fr.Issues {
			if issue.Severity >= min {
				return true
			}
		}
	}
	return false
}
