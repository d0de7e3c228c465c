// Package source builds the per-file source model: a fail-soft parsed tree
// plus derived semantic facts (scope table, name bindings). Units are
// immutable once built and safe to share across goroutines.
package source

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	tt "github.com/gnoverse/glint/pkg/types"
)

// Parse error cascades are capped per file; beyond this the tree is usually
// too damaged for further errors to add signal.
const maxParseIssues = 20

// SyntaxRule is the reserved rule ID attached to parse diagnostics.
const SyntaxRule = "syntax-error"

// Unit is the complete parsed and annotated representation of one file.
// It owns its tree exclusively and is discarded after analysis; only the
// content hash and the finalized issues outlive it.
type Unit struct {
	Path  string
	Src   []byte
	Hash  string
	Lines []string

	Fset *token.FileSet
	// File is the best-effort tree. It may be partial when the source is
	// malformed, and nil when not even a package clause was found.
	File *ast.File

	// ParseIssues records syntax errors from the fail-soft parse.
	ParseIssues []tt.Issue

	// Semantic annotations, populated by the annotate pass when File is
	// non-nil.
	Scopes     *ScopeTable
	Uses       map[*ast.Ident]*Binding
	Unresolved map[*ast.Ident]bool
	Unknown    map[*ast.Ident]bool
}

// Build parses src into a Unit. Malformed input never fails the build: the
// parser runs in AllErrors mode and the resulting partial tree is annotated
// and analyzed like any other, with syntax errors recorded as issues. Rules
// must be able to run over intentionally-broken drafts.
func Build(path string, src []byte) *Unit {
	unit := &Unit{
		Path:  path,
		Src:   src,
		Hash:  HashBytes(src),
		Lines: strings.Split(string(src), "\n"),
		Fset:  token.NewFileSet(),
	}

	mode := parser.ParseComments | parser.AllErrors | parser.SkipObjectResolution
	file, err := parser.ParseFile(unit.Fset, path, src, mode)
	unit.File = file
	if err != nil {
		unit.ParseIssues = parseIssues(path, err)
	}

	if unit.File != nil {
		annotate(unit)
	}
	return unit
}

// Broken reports whether the parse failed so badly that no tree exists.
// Such a unit contributes only its parse issues to the run.
func (u *Unit) Broken() bool {
	return u.File == nil
}

// Damaged reports whether the parse recorded any syntax errors. The tree
// still exists and structural rules run over it, but resolution facts are
// unreliable and resolution-based rules stay quiet.
func (u *Unit) Damaged() bool {
	return len(u.ParseIssues) > 0
}

// Text returns the source text a node spans, or "" when the node's
// positions fall outside the file (possible in damaged trees).
func (u *Unit) Text(node ast.Node) string {
	start := u.Position(node.Pos()).Offset
	end := u.Position(node.End()).Offset
	if start < 0 || end > len(u.Src) || start >= end {
		return ""
	}
	return string(u.Src[start:end])
}

// Line returns the 1-based source line, or "" when out of range (possible
// for positions inside a damaged tree).
func (u *Unit) Line(n int) string {
	if n < 1 || n > len(u.Lines) {
		return ""
	}
	return u.Lines[n-1]
}

// Position maps a token.Pos into this unit's file set.
func (u *Unit) Position(pos token.Pos) token.Position {
	return u.Fset.Position(pos)
}

// SpanIssue builds an issue covering the given node span. All engine-side
// emissions go through here so spans always stay inside the unit's file.
func (u *Unit) SpanIssue(rule string, sev tt.Severity, node ast.Node, message string) tt.Issue {
	return tt.Issue{
		Rule:     rule,
		Severity: sev,
		Filename: u.Path,
		Message:  message,
		Start:    u.Position(node.Pos()),
		End:      u.Position(node.End()),
	}
}

// parseIssues converts a go/parser error into syntax-error issues. Repeated
// errors on one line are collapsed and the total is capped.
func parseIssues(path string, err error) []tt.Issue {
	list, ok := err.(scanner.ErrorList)
	if !ok {
		return []tt.Issue{{
			Rule:     SyntaxRule,
			Severity: tt.SeverityError,
			Filename: path,
			Message:  err.Error(),
			Start:    token.Position{Filename: path, Line: 1, Column: 1},
			End:      token.Position{Filename: path, Line: 1, Column: 1},
		}}
	}

	var issues []tt.Issue
	lastLine := -1
	for _, e := range list {
		if e.Pos.Line == lastLine {
			continue
		}
		lastLine = e.Pos.Line
		start := e.Pos
		start.Filename = path
		end := start
		end.Column++
		issues = append(issues, tt.Issue{
			Rule:     SyntaxRule,
			Severity: tt.SeverityError,
			Filename: path,
			Message:  e.Msg,
			Start:    start,
			End:      end,
		})
		if len(issues) >= maxParseIssues {
			break
		}
	}
	return issues
}
