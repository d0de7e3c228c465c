package formatter

// GeneralIssueFormatter lays out the default issue block: header, code
// excerpt, underline with the message, then optional suggestion and note.
type GeneralIssueFormatter struct{}

func (f *GeneralIssueFormatter) IssueTemplate() string {
	return `{{header .Severity .Rule .MaxLineNumWidth .Filename .StartLine .StartColumn -}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent .Multiline -}}
{{suggestion .Suggestion .Padding .MaxLineNumWidth .StartLine -}}
{{note .Note}}
`
}
