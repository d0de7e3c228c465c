package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnoverse/glint/internal/cache"
	"github.com/gnoverse/glint/lint"
)

func newCacheCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the result cache",
	}
	cmd.PersistentFlags().StringVar(&dir, "cache-dir", "", "result cache directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Dir())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(dir)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show entry count and disk usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(dir)
			if err != nil {
				return err
			}
			entries, bytes, err := store.Size()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nentries: %d\nsize: %s\n", store.Dir(), entries, humanBytes(bytes))
			return nil
		},
	})

	return cmd
}

// openCacheStore resolves the cache location the same way a lint run does:
// explicit flag first, then the configuration file, then the user default.
func openCacheStore(dir string) (*cache.Store, error) {
	if dir == "" {
		if cfg, err := lint.LoadConfig(lint.DefaultConfigFile); err == nil {
			dir = cfg.CacheDir
		}
	}
	return cache.Open(dir)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
