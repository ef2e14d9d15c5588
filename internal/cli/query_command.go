package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/codalotl/legallens/internal/cache"
	"github.com/codalotl/legallens/internal/classify"
	"github.com/codalotl/legallens/internal/config"
	"github.com/codalotl/legallens/internal/llmcomplete"
	"github.com/codalotl/legallens/internal/pipeline"
	"github.com/codalotl/legallens/internal/q/health"
	"github.com/codalotl/legallens/internal/queries"
	"github.com/codalotl/legallens/internal/results"
	"github.com/codalotl/legallens/internal/search"
	"github.com/codalotl/legallens/internal/tokens"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newQueryCommand(flags *rootFlags) *cobra.Command {
	var queriesFile, resultsPath string
	var showHits bool
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search each query's keywords, classify every hit with the LLM, and write a results table",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, logger, err := flags.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if queriesFile != "" {
				cfg.Pipeline.QueriesFile = queriesFile
			}
			if resultsPath != "" {
				cfg.Pipeline.ResultsPath = resultsPath
			}

			specs := queries.Defaults()
			if cfg.Pipeline.QueriesFile != "" {
				specs, err = queries.Load(cfg.Pipeline.QueriesFile)
				if err != nil {
					return err
				}
			}

			store, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			classifier, err := newClassifier(cmd.Context(), cfg, store, logger)
			if err != nil {
				return err
			}

			w, err := results.Create(cfg.Pipeline.ResultsPath)
			if err != nil {
				return health.LogWrappedErr(logger, "create results file", err, zap.String("path", cfg.Pipeline.ResultsPath))
			}
			defer func() {
				if cerr := w.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			d := &pipeline.Driver{
				Searcher: &search.Client{
					Endpoint:     cfg.Search.Endpoint,
					DefaultField: cfg.Search.DefaultField,
					Size:         cfg.Search.Size,
					Cache:        store,
					Logger:       logger,
				},
				Classifier:   classifier,
				Results:      w,
				ContentLimit: cfg.Pipeline.ContentLimit,
				Logger:       logger,
			}
			reports, err := d.Run(cmd.Context(), specs)
			printReports(cmd.OutOrStdout(), reports, showHits)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "results written to %s\n", cfg.Pipeline.ResultsPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&queriesFile, "queries", "", "YAML file of queries (default: built-in queries)")
	cmd.Flags().StringVar(&resultsPath, "results", "", "results file, .csv or .xlsx (default results.csv)")
	cmd.Flags().BoolVar(&showHits, "show-hits", false, "list every hit with its relevance")
	return cmd
}

func openCache(cfg *config.Config) (cache.StoreCloser, error) {
	return cache.Open(cache.Options{
		Backend:   cfg.Cache.Backend,
		Path:      cfg.Cache.Path,
		SizeLimit: cfg.Cache.SizeLimit,
	})
}

func newClassifier(ctx context.Context, cfg *config.Config, store cache.Store, logger *zap.Logger) (*classify.Classifier, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	llm, err := llmcomplete.New(ctx, llmcomplete.ProviderID(cfg.LLM.Provider), apiKey, cfg.LLM.BaseURL)
	if err != nil {
		return nil, err
	}
	counter, err := tokens.New(cfg.LLM.Encoding)
	if err != nil {
		return nil, err
	}
	return &classify.Classifier{
		LLM:        llm,
		Cache:      store,
		Counter:    counter,
		CheapModel: cfg.LLM.CheapModel,
		LargeModel: cfg.LLM.LargeModel,
		Threshold:  cfg.LLM.Threshold,
		Seed:       cfg.LLM.Seed,
		Logger:     logger,
	}, nil
}

func printReports(out io.Writer, reports []pipeline.Report, showHits bool) {
	width := outputWidth(out)
	for _, r := range reports {
		fmt.Fprintf(out, "Query: %s\n", r.Query)
		fmt.Fprintf(out, "Total hits: %d\n", r.TotalHits)
		if showHits {
			for _, h := range r.Hits {
				fmt.Fprintln(out, hitLine(h, width))
			}
		}
		if r.ExpectedFound {
			fmt.Fprintf(out, "Correct Answer: %s\n", r.ExpectedRelevance)
		} else if r.Expected != "" {
			fmt.Fprintf(out, "Correct Answer: %s not among hits\n", r.Expected)
		}
		fmt.Fprintf(out, "Relevance counter: %s\n\n", r.Tally)
	}
}
