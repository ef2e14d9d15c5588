// Package exporter renders judgment records as labeled text blocks and writes them into numbered files, none of which exceeds a token ceiling unless a single
// block does on its own.
package exporter

import (
	"context"
	"strings"

	"github.com/codalotl/legallens/internal/dataset"
	"github.com/codalotl/legallens/internal/q/health"
	"github.com/codalotl/legallens/internal/schema"
	"github.com/codalotl/legallens/internal/storage"
	"github.com/codalotl/legallens/internal/tokens"
	"go.uber.org/zap"
)

const (
	DefaultMaxTokens  = 2_000_000
	DefaultFilePrefix = "cases"
)

// Exporter writes filtered records to Sink. Sink and Counter are required; other zero fields take defaults.
type Exporter struct {
	Sink    storage.Sink
	Counter tokens.Counter

	Columns    []schema.Column // nil means schema.Columns
	MaxTokens  int             // 0 means DefaultMaxTokens
	FilePrefix string          // files are named <FilePrefix>-<n>.txt, n from 1
	Logger     *zap.Logger
}

// File describes one written output file.
type File struct {
	Name     string
	Location string
	Tokens   int
	Records  int
}

type Result struct {
	Files   []File
	Records int // total records exported
}

// Render renders rec as one "<label>: <value>" line per column, followed by a blank line.
func Render(rec dataset.Record, columns []schema.Column) string {
	var b strings.Builder
	for i, c := range columns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.Label)
		b.WriteString(": ")
		b.WriteString(dataset.FormatValue(rec[c.Key]))
	}
	b.WriteString("\n\n")
	return b.String()
}

// Export writes every record whose filterField is truthy, in input order. On error, files already closed remain in the sink and the file being written is
// closed.
func (e *Exporter) Export(ctx context.Context, records []dataset.Record, filterField string) (res *Result, err error) {
	logger := e.logger()
	hctx := health.NewCtx(logger)
	if e.Sink == nil || e.Counter == nil {
		return nil, hctx.LogNewErr("exporter: Sink and Counter are required")
	}

	columns := e.Columns
	if columns == nil {
		columns = schema.Columns
	}
	w := &rollingWriter{
		ctx:       ctx,
		sink:      e.Sink,
		prefix:    e.FilePrefix,
		maxTokens: e.MaxTokens,
		logger:    logger,
	}
	if w.prefix == "" {
		w.prefix = DefaultFilePrefix
	}
	if w.maxTokens <= 0 {
		w.maxTokens = DefaultMaxTokens
	}
	defer func() {
		if cerr := w.close(); cerr != nil && err == nil {
			res, err = nil, hctx.LogWrappedErr("exporter: close output", cerr)
		}
	}()

	selected := dataset.Filter(records, filterField)
	logger.Info("exporting records", zap.Int("total", len(records)), zap.Int("selected", len(selected)), zap.String("filter", filterField))

	for i, rec := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		block := Render(rec, columns)
		n, err := e.Counter.Count(block)
		if err != nil {
			return nil, hctx.LogWrappedErr("exporter: count tokens", err, zap.Int("record", i))
		}
		if n > w.maxTokens {
			logger.Warn("record exceeds token ceiling; writing it whole", zap.Int("record", i), zap.Int("tokens", n), zap.Int("max_tokens", w.maxTokens))
		}
		if err := w.write(block, n); err != nil {
			return nil, hctx.LogWrappedErr("exporter: write record", err, zap.Int("record", i))
		}
	}

	if err := w.close(); err != nil {
		return nil, hctx.LogWrappedErr("exporter: close output", err)
	}
	return &Result{Files: w.files, Records: len(selected)}, nil
}

func (e *Exporter) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
