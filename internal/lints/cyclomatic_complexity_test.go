package lints

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/glint/pkg/types"
)

// chainOfIfs builds a function whose cyclomatic complexity is n+1.
func chainOfIfs(n int) string {
	var sb strings.Builder
	sb.WriteString("package sample\n\nfunc gnarly(a int) int {\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "\tif a > %d {\n\t\ta++\n\t}\n", i)
	}
	sb.WriteString("\treturn a\n}\n")
	return sb.String()
}

func TestCyclomaticComplexity(t *testing.T) {
	t.Parallel()

	t.Run("over threshold", func(t *testing.T) {
		t.Parallel()

		issues := lintWith(t, NewCyclomaticComplexity(), chainOfIfs(11))

		require.Len(t, issues, 1)
		assert.Equal(t, "cyclomatic-complexity", issues[0].Rule)
		assert.Equal(t, types.SeverityWarning, issues[0].Severity, "enabling a default-off rule gives it the baseline severity")
		assert.Contains(t, issues[0].Message, "function gnarly has a cyclomatic complexity of 12 (threshold 10)")
		assert.NotEmpty(t, issues[0].Suggestion)
	})

	t.Run("at threshold stays quiet", func(t *testing.T) {
		t.Parallel()

		issues := lintWith(t, NewCyclomaticComplexity(), chainOfIfs(9))
		assert.Empty(t, issues)
	})

	t.Run("simple function", func(t *testing.T) {
		t.Parallel()

		issues := lintWith(t, NewCyclomaticComplexity(), `package sample

func plain(a int) int {
	return a + 1
}`)
		assert.Empty(t, issues)
	})
}

func TestCyclomaticComplexityOffByDefault(t *testing.T) {
	t.Parallel()

	sel, err := DefaultRegistry().Select(nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, sel.Enabled("cyclomatic-complexity"))

	enabled, err := DefaultRegistry().Select([]string{"cyclomatic-complexity"}, nil, nil)
	require.NoError(t, err)
	assert.True(t, enabled.Enabled("cyclomatic-complexity"))
}
