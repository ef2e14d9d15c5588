// Package pipeline runs each query through search and relevance classification and records one results row per hit.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/codalotl/legallens/internal/classify"
	"github.com/codalotl/legallens/internal/q/health"
	"github.com/codalotl/legallens/internal/queries"
	"github.com/codalotl/legallens/internal/results"
	"github.com/codalotl/legallens/internal/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultContentLimit is how many characters of hit content go into a results row.
const DefaultContentLimit = 1000

type Searcher interface {
	Search(ctx context.Context, keywords []string) (*search.Response, error)
}

type Classifier interface {
	Classify(ctx context.Context, query string, text string) (classify.Relevance, error)
}

// Tally counts hits per relevance label for one query.
type Tally map[classify.Relevance]int

// String renders non-zero counts in label order, ex: "not relevant=2 relevant=3".
func (t Tally) String() string {
	var parts []string
	for _, l := range classify.Labels {
		if n := t[l]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", l, n))
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}

type Report struct {
	Query     string
	TotalHits int // as reported by the search service; may exceed Processed
	Processed int
	Tally     Tally

	Expected          string
	ExpectedFound     bool
	ExpectedRelevance classify.Relevance // classification of the first hit referencing Expected

	Hits []HitResult // in search order
}

type HitResult struct {
	References []string
	Title      string
	Canton     string
	Relevance  classify.Relevance
}

// Driver processes queries strictly in order, hits strictly in order. Results is optional.
type Driver struct {
	Searcher     Searcher
	Classifier   Classifier
	Results      results.Writer
	ContentLimit int // 0 means DefaultContentLimit
	Logger       *zap.Logger
}

// Run stops at the first error. Rows already written and results already cached are kept.
func (d *Driver) Run(ctx context.Context, specs []queries.Spec) ([]Report, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	hctx := health.NewCtx(logger)

	if d.Searcher == nil || d.Classifier == nil {
		return nil, hctx.LogNewErr("pipeline: Searcher and Classifier are required")
	}

	reports := make([]Report, 0, len(specs))
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := d.runQuery(ctx, logger.With(zap.String("query", spec.Query)), spec)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (d *Driver) runQuery(ctx context.Context, logger *zap.Logger, spec queries.Spec) (Report, error) {
	hctx := health.NewCtx(logger)
	rep := Report{Query: spec.Query, Expected: spec.Expected, Tally: Tally{}}

	resp, err := d.Searcher.Search(ctx, spec.Keywords)
	if err != nil {
		return rep, health.Wrap("pipeline: search", err, zap.String("query", spec.Query))
	}
	rep.TotalHits = resp.Hits.Total.Value
	logger.Info("search hits", zap.Int("total_hits", rep.TotalHits), zap.Int("returned", len(resp.Hits.Hits)))

	for i, hit := range resp.Hits.Hits {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rel, err := d.Classifier.Classify(ctx, spec.Query, hit.PromptText())
		if err != nil {
			return rep, health.Wrap("pipeline: classify", err, zap.String("query", spec.Query), zap.Int("hit", i))
		}
		rep.Tally[rel]++
		rep.Processed++
		rep.Hits = append(rep.Hits, HitResult{References: hit.References(), Title: hit.Title(), Canton: hit.Source.Canton, Relevance: rel})

		if spec.Expected != "" && hit.HasReference(spec.Expected) {
			logger.Info("correct answer", zap.String("expected", spec.Expected), zap.String("relevance", string(rel)))
			if !rep.ExpectedFound {
				rep.ExpectedFound = true
				rep.ExpectedRelevance = rel
			}
		}

		if d.Results != nil {
			row := results.Row{
				Query:      spec.Query,
				Relevance:  string(rel),
				References: hit.References(),
				Title:      hit.Title(),
				Canton:     hit.Source.Canton,
				Content:    flatten(hit.Content(), d.contentLimit()),
			}
			if err := d.Results.Write(row); err != nil {
				return rep, hctx.LogWrappedErr("pipeline: write results row", err, zap.Int("hit", i))
			}
		}
	}

	logger.Info("relevance tally", zap.String("tally", rep.Tally.String()), zap.Int("processed", rep.Processed))
	return rep, nil
}

func (d *Driver) contentLimit() int {
	if d.ContentLimit <= 0 {
		return DefaultContentLimit
	}
	return d.ContentLimit
}

// flatten keeps the first limit characters of s and turns newlines into spaces.
func flatten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		s = string(runes[:limit])
	}
	return strings.ReplaceAll(s, "\n", " ")
}
