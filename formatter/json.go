package formatter

import (
	"encoding/json"
	"time"

	tt "github.com/gnoverse/glint/pkg/types"
)

// reportJSON is the machine-readable projection of a report. Files without
// findings stay in the list so consumers see what was analyzed.
type reportJSON struct {
	Files      []fileJSON  `json:"files"`
	Summary    summaryJSON `json:"summary"`
	DurationMS int64       `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

type fileJSON struct {
	Path      string      `json:"path"`
	FromCache bool        `json:"from_cache"`
	Issues    []issueJSON `json:"issues"`
}

type issueJSON struct {
	Rule       string       `json:"rule"`
	Severity   tt.Severity  `json:"severity"`
	Message    string       `json:"message"`
	Suggestion string       `json:"suggestion,omitempty"`
	Note       string       `json:"note,omitempty"`
	Start      positionJSON `json:"start"`
	End        positionJSON `json:"end"`
}

type positionJSON struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type summaryJSON struct {
	Files     int `json:"files"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	Notes     int `json:"notes"`
	CacheHits int `json:"cache_hits"`
}

// FormatJSON renders the whole report as one indented JSON object.
func FormatJSON(report *tt.Report) (string, error) {
	out := reportJSON{
		Files:      make([]fileJSON, 0, len(report.Files)),
		DurationMS: report.Duration.Milliseconds(),
		CreatedAt:  report.CreatedAt,
		Summary: summaryJSON{
			Files:     report.Summary.Files,
			Errors:    report.Summary.Errors,
			Warnings:  report.Summary.Warnings,
			Notes:     report.Summary.Notes,
			CacheHits: report.Summary.CacheHits,
		},
	}

	for _, fr := range report.Files {
		file := fileJSON{
			Path:      fr.Path,
			FromCache: fr.FromCache,
			Issues:    make([]issueJSON, 0, len(fr.Issues)),
		}
		for _, issue := range fr.Issues {
			file.Issues = append(file.Issues, issueJSON{
				Rule:       issue.Rule,
				Severity:   issue.Severity,
				Message:    issue.Message,
				Suggestion: issue.Suggestion,
				Note:       issue.Note,
				Start:      positionJSON{Line: issue.Start.Line, Column: issue.Start.Column},
				End:        positionJSON{Line: issue.End.Line, Column: issue.End.Column},
			})
		}
		out.Files = append(out.Files, file)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
