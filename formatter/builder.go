package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/fatih/color"

	tt "github.com/gnoverse/glint/pkg/types"
)

const (
	tabWidth = 8

	// maxSnippetLines caps how much source a single issue may excerpt.
	maxSnippetLines = 8
)

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	warningStyle    = color.New(color.FgHiYellow, color.Bold)
	noteStyle       = color.New(color.FgHiCyan, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
)

// issueFormatter is the interface that wraps the IssueTemplate method.
// Implementations pick the layout for one class of issues.
type issueFormatter interface {
	IssueTemplate() string
}

// getIssueFormatter returns the formatter for the given rule. Rules without
// a dedicated layout share the general one.
func getIssueFormatter(rule string) issueFormatter {
	switch rule {
	case "rule-crash":
		return &RuleCrashFormatter{}
	default:
		return &GeneralIssueFormatter{}
	}
}

type issueData struct {
	Severity        string
	Rule            string
	Filename        string
	Padding         string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	Multiline       bool
	Message         string
	Suggestion      string
	Note            string
	SnippetLines    []string
	CommonIndent    string
}

func buildIssue(issue tt.Issue, lines []string) string {
	startLine := issue.Start.Line
	endLine := issue.End.Line

	// Long spans excerpt only their head.
	multiline := endLine > startLine
	if endLine-startLine+1 > maxSnippetLines {
		endLine = startLine + maxSnippetLines - 1
	}

	maxLineNumWidth := len(fmt.Sprintf("%d", endLine))
	padding := strings.Repeat(" ", maxLineNumWidth+1)

	var commonIndent string
	if startLine >= 1 && endLine <= len(lines) && startLine <= endLine {
		commonIndent = findCommonIndent(lines[startLine-1 : endLine])
	}

	data := issueData{
		Severity:        issue.Severity.String(),
		Rule:            issue.Rule,
		Filename:        issue.Filename,
		StartLine:       startLine,
		StartColumn:     issue.Start.Column,
		EndLine:         endLine,
		EndColumn:       issue.End.Column,
		Multiline:       multiline,
		Message:         issue.Message,
		Suggestion:      issue.Suggestion,
		Note:            issue.Note,
		MaxLineNumWidth: maxLineNumWidth,
		Padding:         padding,
		CommonIndent:    commonIndent,
		SnippetLines:    lines,
	}

	funcMap := template.FuncMap{
		"header":              header,
		"snippet":             codeSnippet,
		"underlineAndMessage": underlineAndMessage,
		"suggestion":          suggestion,
		"note":                note,
		"message":             message,
	}

	formatter := getIssueFormatter(issue.Rule)
	tmpl := template.Must(template.New("issue").Funcs(funcMap).Parse(formatter.IssueTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("error formatting issue: %v\n", err)
	}
	return buf.String()
}

// template helpers, each rendering one block that ends with a newline

func header(severity, rule string, maxLineNumWidth int, filename string, startLine, startColumn int) string {
	var out string
	switch severity {
	case "error":
		out = errorStyle.Sprint("error: ")
	case "warning":
		out = warningStyle.Sprint("warning: ")
	default:
		out = noteStyle.Sprint("note: ")
	}
	out += ruleStyle.Sprintf("%s\n", rule)

	padding := strings.Repeat(" ", maxLineNumWidth)
	out += lineStyle.Sprintf("%s--> ", padding)
	out += fileStyle.Sprintf("%s:%d:%d\n", filename, startLine, startColumn)
	return out
}

func codeSnippet(snippetLines []string, startLine, endLine, maxLineNumWidth int, commonIndent, padding string) string {
	out := lineStyle.Sprintf("%s|\n", padding)
	for i := startLine; i <= endLine; i++ {
		if i < 1 || i > len(snippetLines) {
			continue
		}
		line := strings.TrimPrefix(snippetLines[i-1], commonIndent)
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, i)
		out += lineStyle.Sprintf("%s | ", lineNum)
		out += line + "\n"
	}
	return out
}

func underlineAndMessage(msg, padding string, startLine, endLine, startColumn, endColumn int, snippetLines []string, commonIndent string, multiline bool) string {
	out := lineStyle.Sprintf("%s| ", padding)

	if !validLineRange(startLine, endLine, snippetLines) {
		out += messageStyle.Sprintf("%s\n", msg)
		return out
	}

	indentWidth := visualColumn(commonIndent, len(commonIndent)+1)

	start := visualColumn(snippetLines[startLine-1], startColumn) - indentWidth
	if start < 0 {
		start = 0
	}

	var length int
	if multiline || endLine > startLine {
		// Underline from the start column to the widest excerpt line.
		widest := 0
		for i := startLine; i <= endLine; i++ {
			w := visualWidth(strings.TrimPrefix(snippetLines[i-1], commonIndent))
			if w > widest {
				widest = w
			}
		}
		length = widest - start
	} else {
		end := visualColumn(snippetLines[endLine-1], endColumn) - indentWidth
		length = end - start + 1
	}
	if length < 1 {
		length = 1
	}

	out += strings.Repeat(" ", start)
	out += messageStyle.Sprintf("%s\n", strings.Repeat("~", length))
	out += lineStyle.Sprintf("%s= ", padding)
	out += messageStyle.Sprintf("%s\n", msg)
	return out
}

func suggestion(text, padding string, maxLineNumWidth, startLine int) string {
	if text == "" {
		return ""
	}
	out := "\n" + suggestionStyle.Sprint("Suggestion:\n")
	out += lineStyle.Sprintf("%s|\n", padding)
	for i, line := range strings.Split(text, "\n") {
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, startLine+i)
		out += lineStyle.Sprintf("%s | ", lineNum)
		out += line + "\n"
	}
	out += lineStyle.Sprintf("%s|\n", padding)
	return out
}

func note(text string) string {
	if text == "" {
		return ""
	}
	return "\n" + suggestionStyle.Sprint("Note: ") + lineStyle.Sprintf("%s\n", text)
}

func message(msg string) string {
	return messageStyle.Sprintf("%s\n", msg)
}

func validLineRange(startLine, endLine int, lines []string) bool {
	return startLine > 0 &&
		endLine > 0 &&
		startLine <= endLine &&
		startLine <= len(lines) &&
		endLine <= len(lines)
}

// visualColumn converts a byte-ish column into a screen column, expanding
// tabs to the next tab stop.
func visualColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	visual := 0
	for i, ch := range line {
		if i+1 == column {
			break
		}
		if ch == '\t' {
			visual += tabWidth - (visual % tabWidth)
		} else {
			visual++
		}
	}
	return visual
}

func visualWidth(line string) int {
	return visualColumn(line, len(line)+1)
}

// findCommonIndent returns the indentation shared by every non-empty line.
func findCommonIndent(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	var first []rune
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed != "" {
			first = []rune(line[:len(line)-len(trimmed)])
			break
		}
	}
	if len(first) == 0 {
		return ""
	}

	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}
		indent := []rune(line[:len(line)-len(trimmed)])
		first = commonPrefix(first, indent)
		if len(first) == 0 {
			break
		}
	}
	return string(first)
}

func commonPrefix(a, b []rune) []rune {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
