package cli

import (
	"fmt"

	"github.com/codalotl/legallens/internal/cache"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the response cache",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print entry count and size of the response cache",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.load(cmd)
			if err != nil {
				return err
			}
			store, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			reporter, ok := store.(cache.StatsReporter)
			if !ok {
				return fmt.Errorf("cache backend %q does not report stats", cfg.Cache.Backend)
			}
			st, err := reporter.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:    %s\n", st.Backend)
			fmt.Fprintf(out, "location:   %s\n", cfg.Cache.Path)
			fmt.Fprintf(out, "entries:    %d\n", st.Entries)
			fmt.Fprintf(out, "size:       %s (%d bytes)\n", humanize.IBytes(uint64(st.Bytes)), st.Bytes)
			if st.SizeLimit > 0 {
				fmt.Fprintf(out, "size limit: %s\n", humanize.IBytes(uint64(st.SizeLimit)))
			} else {
				fmt.Fprintln(out, "size limit: none")
			}
			return nil
		},
	})
	return cmd
}
