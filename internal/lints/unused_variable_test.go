package lints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/glint/pkg/types"
)

func TestUnusedVariable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{
			name: "never read",
			code: `
package main

func f() {
	x := 1
	_ = 2
}`,
			expected: 1,
		},
		{
			name: "read once",
			code: `
package main

func f() int {
	x := 1
	return x
}`,
			expected: 0,
		},
		{
			name: "only ever assigned",
			code: `
package main

func f() {
	x := 1
	x = 2
	x = 3
}`,
			expected: 1,
		},
		{
			name: "parameters are exempt",
			code: `
package main

func f(unusedParam int) {}`,
			expected: 0,
		},
		{
			name: "package level names are exempt",
			code: `
package main

var exported = 1`,
			expected: 0,
		},
		{
			name: "unused range index",
			code: `
package main

func f(xs []int) {
	for i := range xs {
		_ = xs
	}
}`,
			expected: 1,
		},
		{
			name: "use inside closure counts",
			code: `
package main

func f() func() int {
	captured := 1
	return func() int {
		return captured
	}
}`,
			expected: 0,
		},
		{
			name: "address taken counts as use",
			code: `
package main

func f() *int {
	boxed := 1
	return &boxed
}`,
			expected: 0,
		},
		{
			name: "shadowing reported per binding",
			code: `
package main

func f() int {
	x := 1
	{
		x := 2
		_ = x
	}
	return x
}`,
			expected: 0,
		},
		{
			name: "inner shadow unused",
			code: `
package main

func f() int {
	x := 1
	{
		x := 2
		x = 3
	}
	return x
}`,
			expected: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			issues := lintWith(t, NewUnusedVariable(), tt.code)
			assert.Len(t, issues, tt.expected)
			for _, issue := range issues {
				assert.Equal(t, "unused-variable", issue.Rule)
				assert.Equal(t, types.SeverityWarning, issue.Severity)
				assert.Contains(t, issue.Message, "unused variable:")
			}
		})
	}
}

func TestUnusedVariablePosition(t *testing.T) {
	t.Parallel()

	code := `package main

func f() {
	leftover := 1
	_ = 2
}`
	issues := lintWith(t, NewUnusedVariable(), code)

	require.Len(t, issues, 1)
	assert.Equal(t, "unused variable: leftover", issues[0].Message)
	assert.Equal(t, 4, issues[0].Start.Line, "reported at the declaration site")
	assert.Equal(t, 2, issues[0].Start.Column)
}

func TestUnusedVariableQuietOnDamagedFile(t *testing.T) {
	t.Parallel()

	code := `package main

func f() {
	leftover := 1
}

func broken( {
`
	issues := lintWith(t, NewUnusedVariable(), code)

	assert.Empty(t, onlyRule(issues, "unused-variable"))
}
