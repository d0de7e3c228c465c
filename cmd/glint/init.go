package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnoverse/glint/lint"
	tt "github.com/gnoverse/glint/pkg/types"
)

// newInitCmd scaffolds a configuration file with every key present so the
// available knobs are discoverable without reading documentation.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a starter configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := lint.DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return lint.NewConfigError(fmt.Errorf("%s already exists, pass --force to overwrite", path))
				}
			}
			if err := writeStarterConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration file created: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func writeStarterConfig(path string) error {
	cfg := lint.Config{
		Enable:   []string{},
		Disable:  []string{},
		Severity: map[string]tt.Severity{},
		FailOn:   "warning",
		Exclude:  []string{},
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
