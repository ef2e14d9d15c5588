// Package results writes one row per classified search hit to a CSV or XLSX file.
package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Header is the first row of every results file.
var Header = []string{"Query", "Relevance", "Hit References", "Hit Title", "Hit Canton", "Hit Content"}

type Row struct {
	Query      string
	Relevance  string
	References []string
	Title      string
	Canton     string
	Content    string // already truncated and flattened by the caller
}

func (r Row) cells() []string {
	return []string{r.Query, r.Relevance, strings.Join(r.References, ","), r.Title, r.Canton, r.Content}
}

// Writer appends rows. Close flushes and must be called once.
type Writer interface {
	Write(row Row) error
	Close() error
}

// Create opens path for writing, choosing the format by extension (.xlsx, otherwise CSV), and writes the header.
func Create(path string) (Writer, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return NewXLSX(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewCSV(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// CSV writes CRLF-terminated records. Carriage returns and newlines inside fields are written unchanged.
type CSV struct {
	out    io.Writer
	buf    bytes.Buffer
	w      *csv.Writer
	closer io.Closer
}

// NewCSV writes the header to w. If w is an io.Closer, Close closes it.
func NewCSV(w io.Writer) (*CSV, error) {
	c := &CSV{out: w}
	// csv.Writer's UseCRLF also rewrites \r and \n inside quoted fields, so records are encoded with LF and the terminator is swapped.
	c.w = csv.NewWriter(&c.buf)
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	if err := c.writeRecord(Header); err != nil {
		return nil, err
	}
	return c, nil
}

// Write emits each row immediately so that partial results survive a failed run.
func (c *CSV) Write(row Row) error {
	return c.writeRecord(row.cells())
}

func (c *CSV) writeRecord(cells []string) error {
	c.buf.Reset()
	if err := c.w.Write(cells); err != nil {
		return err
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	line := bytes.TrimSuffix(c.buf.Bytes(), []byte("\n"))
	if _, err := c.out.Write(line); err != nil {
		return err
	}
	_, err := io.WriteString(c.out, "\r\n")
	return err
}

func (c *CSV) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// XLSX builds a workbook in memory and saves it on Close.
type XLSX struct {
	path  string
	f     *excelize.File
	sheet string
	next  int // next 1-based row
}

func NewXLSX(path string) (*XLSX, error) {
	f := excelize.NewFile()
	sheet := "Results"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, err
	}
	x := &XLSX{path: path, f: f, sheet: sheet, next: 1}
	if err := x.writeCells(Header); err != nil {
		f.Close()
		return nil, err
	}
	return x, nil
}

func (x *XLSX) Write(row Row) error {
	return x.writeCells(row.cells())
}

func (x *XLSX) writeCells(cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, x.next)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := x.f.SetSheetRow(x.sheet, cell, &values); err != nil {
		return fmt.Errorf("results: write row %d: %w", x.next, err)
	}
	x.next++
	return nil
}

func (x *XLSX) Close() error {
	err := x.f.SaveAs(x.path)
	if cerr := x.f.Close(); err == nil {
		err = cerr
	}
	return err
}
