package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnoverse/glint/internal/lints"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List registered rules with their default severities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := lints.DefaultRegistry()
			for _, id := range reg.IDs() {
				unit, ok := reg.Lookup(id)
				if !ok {
					continue
				}
				meta := unit.Meta()
				doc := meta.Doc
				if i := strings.IndexByte(doc, '\n'); i >= 0 {
					doc = doc[:i]
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-8s %s\n", meta.ID, meta.Severity, doc)
			}
			return nil
		},
	}
}
