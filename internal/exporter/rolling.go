package exporter

import (
	"context"
	"fmt"
	"io"

	"github.com/codalotl/legallens/internal/storage"
	"go.uber.org/zap"
)

// rollingWriter owns at most one open output at a time. States: no file open, writing. write moves from the first to the second by opening file 1, and rolls over
// (close, open next) when the next block would push a non-empty file past maxTokens. close returns to no file open and is idempotent.
type rollingWriter struct {
	ctx       context.Context
	sink      storage.Sink
	prefix    string
	maxTokens int
	logger    *zap.Logger

	cur     io.WriteCloser
	running int
	files   []File
}

func (w *rollingWriter) write(block string, tokens int) error {
	if w.cur == nil || (w.running > 0 && w.running+tokens > w.maxTokens) {
		if err := w.rollover(); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w.cur, block); err != nil {
		return err
	}
	w.running += tokens
	f := &w.files[len(w.files)-1]
	f.Tokens = w.running
	f.Records++
	return nil
}

func (w *rollingWriter) rollover() error {
	if err := w.close(); err != nil {
		return err
	}
	name := fmt.Sprintf("%s-%d.txt", w.prefix, len(w.files)+1)
	out, err := w.sink.Create(w.ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	w.cur = out
	w.running = 0
	w.files = append(w.files, File{Name: name, Location: w.sink.Location(name)})
	return nil
}

func (w *rollingWriter) close() error {
	if w.cur == nil {
		return nil
	}
	out := w.cur
	w.cur = nil
	f := w.files[len(w.files)-1]
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.Name, err)
	}
	w.logger.Info("wrote export file", zap.String("location", f.Location), zap.Int("tokens", f.Tokens), zap.Int("records", f.Records))
	return nil
}
