package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/codalotl/legallens/internal/dataset"
	"github.com/codalotl/legallens/internal/exporter"
	"github.com/codalotl/legallens/internal/q/health"
	"github.com/codalotl/legallens/internal/storage"
	"github.com/codalotl/legallens/internal/tokens"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCommand(flags *rootFlags) *cobra.Command {
	var (
		datasetPath string
		outDir      string
		filter      string
		prefix      string
		maxTokens   int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records whose filter field is set into token-bounded text files",
		Long: `Loads the dataset (.parquet, .jsonl, .csv, or .xlsx), keeps records whose filter field is truthy, and writes them as labeled text blocks
into <prefix>-1.txt, <prefix>-2.txt, ... so that no file exceeds the token ceiling (a single oversized record gets a file of its own).`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if datasetPath != "" {
				cfg.Dataset.Path = datasetPath
			}
			if filter != "" {
				cfg.Dataset.FilterField = filter
			}
			if prefix != "" {
				cfg.Export.FilePrefix = prefix
			}
			if maxTokens > 0 {
				cfg.Export.MaxTokens = maxTokens
			}
			sinkCfg := cfg.Export.Storage
			if outDir != "" {
				sinkCfg = storage.Config{Type: storage.TypeLocal, Dir: outDir}
			}

			records, err := dataset.Load(cfg.Dataset.Path)
			if err != nil {
				return health.LogWrappedErr(logger, "load dataset", err, zap.String("path", cfg.Dataset.Path))
			}
			counter, err := tokens.New(cfg.Export.Encoding)
			if err != nil {
				return err
			}
			sink, err := storage.NewSink(cmd.Context(), sinkCfg)
			if err != nil {
				return err
			}

			e := &exporter.Exporter{
				Sink:       sink,
				Counter:    counter,
				MaxTokens:  cfg.Export.MaxTokens,
				FilePrefix: cfg.Export.FilePrefix,
				Logger:     logger,
			}
			res, err := e.Export(cmd.Context(), records, cfg.Dataset.FilterField)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tTOKENS\tRECORDS")
			for _, f := range res.Files {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", f.Location, f.Tokens, f.Records)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d of %d records into %d file(s)\n", res.Records, len(records), len(res.Files))
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "dataset file (overrides dataset.path)")
	cmd.Flags().StringVar(&outDir, "out", "", "write to this local directory (overrides export.storage)")
	cmd.Flags().StringVar(&filter, "filter", "", "boolean field selecting records (default leading_case)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "output file name prefix (default cases)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "per-file token ceiling (default 2000000)")
	return cmd
}
