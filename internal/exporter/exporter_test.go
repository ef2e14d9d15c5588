package exporter

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codalotl/legallens/internal/dataset"
	"github.com/codalotl/legallens/internal/schema"
	"github.com/codalotl/legallens/internal/storage"
	"github.com/codalotl/legallens/internal/tokens"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testColumns = []schema.Column{
	{Key: "docref", Label: "Case"},
	{Key: "text", Label: "Text"},
}

// wordCounter counts whitespace-separated words, so a record rendered with testColumns costs 3 + len(words in text).
var wordCounter = tokens.CounterFunc(func(s string) (int, error) {
	return len(strings.Fields(s)), nil
})

func rec(docref string, words int, leading bool) dataset.Record {
	return dataset.Record{
		"docref":       docref,
		"text":         strings.TrimSpace(strings.Repeat("w ", words)),
		"leading_case": leading,
	}
}

func readFiles(t *testing.T, dir string, res *Result) []string {
	t.Helper()
	var out []string
	for _, f := range res.Files {
		b, err := os.ReadFile(filepath.Join(dir, f.Name))
		require.NoError(t, err)
		out = append(out, string(b))
	}
	return out
}

func TestRender(t *testing.T) {
	got := Render(dataset.Record{"docref": "4C.180/2005", "leading_case": true}, []schema.Column{
		{Key: "docref", Label: "Case Number"},
		{Key: "leading_case", Label: "Publication as Leading Case"},
		{Key: "topic", Label: "Topic"},
	})
	assert.Equal(t, "Case Number: 4C.180/2005\nPublication as Leading Case: True\nTopic: None\n\n", got)
}

func TestRender_DefaultSchemaHasOneLinePerColumn(t *testing.T) {
	got := Render(dataset.Record{}, schema.Columns)
	lines := strings.Split(strings.TrimSuffix(got, "\n\n"), "\n")
	require.Len(t, lines, len(schema.Columns))
	assert.Equal(t, "Case Number: None", lines[0])
}

func TestExport_RollsOverAtCeiling(t *testing.T) {
	dir := t.TempDir()
	sink, err := storage.NewLocal(dir)
	require.NoError(t, err)
	e := &Exporter{Sink: sink, Counter: wordCounter, Columns: testColumns, MaxTokens: 10, Logger: zaptest.NewLogger(t)}

	records := []dataset.Record{
		rec("a", 2, true),  // 5 tokens
		rec("b", 20, true), // 23 tokens, alone in its own file
		rec("c", 2, true),
		rec("d", 2, true),
		rec("e", 2, true),
	}
	res, err := e.Export(context.Background(), records, "leading_case")
	require.NoError(t, err)

	var names []string
	var counts []int
	for _, f := range res.Files {
		names = append(names, f.Name)
		counts = append(counts, f.Tokens)
		if f.Records > 1 {
			assert.LessOrEqual(t, f.Tokens, 10)
		}
	}
	assert.Equal(t, []string{"cases-1.txt", "cases-2.txt", "cases-3.txt", "cases-4.txt"}, names)
	assert.Equal(t, []int{5, 23, 10, 5}, counts)
	assert.Equal(t, 5, res.Records)

	contents := readFiles(t, dir, res)
	assert.Equal(t, "Case: a\nText: w w\n\n", contents[0])
	assert.True(t, strings.HasPrefix(contents[1], "Case: b\n"))
	assert.Equal(t, "Case: c\nText: w w\n\nCase: d\nText: w w\n\n", contents[2])
	for i, c := range contents {
		n, _ := wordCounter.Count(c)
		assert.Equal(t, res.Files[i].Tokens, n)
	}
}

func TestExport_OversizedFirstBlockDoesNotLeaveEmptyFile(t *testing.T) {
	dir := t.TempDir()
	sink, err := storage.NewLocal(dir)
	require.NoError(t, err)
	e := &Exporter{Sink: sink, Counter: wordCounter, Columns: testColumns, MaxTokens: 4}

	res, err := e.Export(context.Background(), []dataset.Record{rec("a", 10, true), rec("b", 10, true)}, "leading_case")
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	for _, c := range readFiles(t, dir, res) {
		assert.NotEmpty(t, c)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestExport_FalsyLeadingCaseNeverExported(t *testing.T) {
	dir := t.TempDir()
	sink, err := storage.NewLocal(dir)
	require.NoError(t, err)
	e := &Exporter{Sink: sink, Counter: wordCounter, Columns: testColumns}

	records := []dataset.Record{
		rec("keep-1", 1, true),
		rec("drop-1", 1, false),
		{"docref": "drop-2", "text": "x"},
		{"docref": "drop-3", "text": "x", "leading_case": "False"},
		rec("keep-2", 1, true),
	}
	res, err := e.Export(context.Background(), records, "leading_case")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)

	all := strings.Join(readFiles(t, dir, res), "")
	assert.Contains(t, all, "keep-1")
	assert.Contains(t, all, "keep-2")
	assert.NotContains(t, all, "drop-")
}

func TestExport_NoQualifyingRecordsWritesNothing(t *testing.T) {
	dir := t.TempDir()
	sink, err := storage.NewLocal(dir)
	require.NoError(t, err)
	e := &Exporter{Sink: sink, Counter: wordCounter, Columns: testColumns}

	res, err := e.Export(context.Background(), []dataset.Record{rec("a", 1, false)}, "leading_case")
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExport_Deterministic(t *testing.T) {
	counter, err := tokens.New(tokens.DefaultEncoding)
	require.NoError(t, err)

	var records []dataset.Record
	for i := 0; i < 30; i++ {
		records = append(records, dataset.Record{
			"docref":       "5A_" + strings.Repeat("1", i%5+1) + "/2020",
			"leading_case": i%3 != 0,
			"year":         2020.0,
			"text":         strings.Repeat("Das Bundesgericht zieht in Erwägung. ", i+1),
		})
	}

	run := func() []string {
		dir := t.TempDir()
		sink, err := storage.NewLocal(dir)
		require.NoError(t, err)
		e := &Exporter{Sink: sink, Counter: counter, MaxTokens: 400, FilePrefix: "leading"}
		res, err := e.Export(context.Background(), records, "leading_case")
		require.NoError(t, err)
		require.Greater(t, len(res.Files), 1)
		return readFiles(t, dir, res)
	}

	first, second := run(), run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("export not deterministic (-first +second):\n%s", diff)
	}
}

type failingSink struct {
	failOn  int
	created int
	closed  int
}

type countingCloser struct {
	io.Writer
	sink *failingSink
}

func (c countingCloser) Close() error {
	c.sink.closed++
	return nil
}

func (s *failingSink) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	s.created++
	if s.created == s.failOn {
		return nil, errors.New("disk full")
	}
	return countingCloser{Writer: io.Discard, sink: s}, nil
}

func (s *failingSink) Location(name string) string { return "mem://" + name }

func TestExport_ClosesOnError(t *testing.T) {
	sink := &failingSink{failOn: 2}
	e := &Exporter{Sink: sink, Counter: wordCounter, Columns: testColumns, MaxTokens: 5}

	_, err := e.Export(context.Background(), []dataset.Record{rec("a", 2, true), rec("b", 2, true)}, "leading_case")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, sink.closed)
}

func TestExport_CounterErrorClosesFile(t *testing.T) {
	sink := &failingSink{}
	calls := 0
	counter := tokens.CounterFunc(func(s string) (int, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("tokenizer broke")
		}
		return 1, nil
	})
	e := &Exporter{Sink: sink, Counter: counter, Columns: testColumns}

	_, err := e.Export(context.Background(), []dataset.Record{rec("a", 1, true), rec("b", 1, true)}, "leading_case")
	require.Error(t, err)
	assert.Equal(t, 1, sink.created)
	assert.Equal(t, 1, sink.closed)
}
