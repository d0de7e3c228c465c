package formatter

// RuleCrashFormatter reports an analyzer failure without excerpting code.
// The recovered position may span the whole file, so a snippet would be
// noise.
type RuleCrashFormatter struct{}

func (f *RuleCrashFormatter) IssueTemplate() string {
	return `{{header .Severity .Rule .MaxLineNumWidth .Filename .StartLine .StartColumn -}}
{{message .Message -}}
{{note .Note}}
`
}
