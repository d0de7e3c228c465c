// Package nolint parses //nolint directives and answers whether an issue
// falls inside a suppressed span.
package nolint

import (
	"go/ast"
	"strings"

	"github.com/gnoverse/glint/internal/source"
	tt "github.com/gnoverse/glint/pkg/types"
)

const directive = "//nolint"

// Set holds the suppression spans of one file.
type Set struct {
	spans []span
}

// span is a line range in which some or all rules are silenced.
type span struct {
	rules     map[string]struct{} // empty means every rule
	startLine int
	endLine   int
}

// Parse collects the nolint spans of a unit. Malformed directives are
// ignored; a linter must not choke on a typo in a comment.
func Parse(unit *source.Unit) *Set {
	set := &Set{}
	if unit.Broken() {
		return set
	}

	lines := indexByLine(unit)
	packageLine := unit.Position(unit.File.Package).Line

	for _, group := range unit.File.Comments {
		for _, comment := range group.List {
			if sp, ok := parseDirective(unit, comment, lines, packageLine); ok {
				set.spans = append(set.spans, sp)
			}
		}
	}
	return set
}

// Len returns the number of parsed spans.
func (s *Set) Len() int { return len(s.spans) }

// Suppressed reports whether the issue's start position falls in a span
// that silences its rule.
func (s *Set) Suppressed(issue tt.Issue) bool {
	line := issue.Start.Line
	for _, sp := range s.spans {
		if line < sp.startLine || line > sp.endLine {
			continue
		}
		if len(sp.rules) == 0 {
			return true
		}
		if _, ok := sp.rules[issue.Rule]; ok {
			return true
		}
	}
	return false
}

// parseDirective turns one comment into a span. The directive is either
// bare (//nolint, silences everything) or carries a rule list
// (//nolint:rule-a,rule-b).
func parseDirective(unit *source.Unit, comment *ast.Comment, lines map[int]ast.Node, packageLine int) (span, bool) {
	text := comment.Text
	if !strings.HasPrefix(text, directive) {
		return span{}, false
	}
	rest := text[len(directive):]
	if rest != "" && rest[0] != ':' {
		// Some other comment that merely starts with the word, e.g.
		// "//nolinting here".
		return span{}, false
	}
	if rest != "" {
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return span{}, false // colon with no rules
		}
	}
	sp := span{rules: splitRules(rest)}

	pos := unit.Position(comment.Slash)

	// Above the package clause the directive covers the whole file.
	if pos.Line < packageLine {
		sp.startLine = 1
		sp.endLine = len(unit.Lines)
		return sp, true
	}

	// Trailing a statement or declaration: cover that node.
	if node, ok := lines[pos.Line]; ok {
		if unit.Position(node.Pos()).Offset < pos.Offset {
			sp.startLine = unit.Position(node.Pos()).Line
			sp.endLine = unit.Position(node.End()).Line
			return sp, true
		}
	}

	// On its own line: cover the node starting on the next line, when
	// there is one, including the directive line itself.
	if node, ok := lines[pos.Line+1]; ok {
		sp.startLine = pos.Line
		sp.endLine = unit.Position(node.End()).Line
		return sp, true
	}

	// Nothing follows; the directive covers only its own line.
	sp.startLine = pos.Line
	sp.endLine = pos.Line
	return sp, true
}

func splitRules(list string) map[string]struct{} {
	rules := make(map[string]struct{})
	if list == "" {
		return rules
	}
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			rules[name] = struct{}{}
		}
	}
	return rules
}

// indexByLine maps each line to the first statement or declaration that
// starts on it, so directives attach to the code they annotate.
func indexByLine(unit *source.Unit) map[int]ast.Node {
	lines := make(map[int]ast.Node)
	ast.Inspect(unit.File, func(n ast.Node) bool {
		switch n.(type) {
		case ast.Stmt, ast.Decl, *ast.Field:
			line := unit.Position(n.Pos()).Line
			if _, taken := lines[line]; !taken {
				lines[line] = n
			}
		}
		return true
	})
	return lines
}
