package queries

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	require.Len(t, d, 2)
	for _, s := range d {
		assert.NoError(t, s.Validate())
	}
	assert.Equal(t, "4C.180/2005", d[0].Expected)
	assert.Equal(t, []string{"Recht", "Kenntnis", "Eltern", "Adoption"}, d[1].Keywords)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.yaml")
	content := `queries:
  - query: Verkehrswertschätzung einer Liegenschaft
    keywords: [Verkehrswertschätzung, Liegenschaft]
    expected: 4C.28/2001
  - query: Mietzins
    keywords:
      - Mietzins
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	want := []Spec{
		{Query: "Verkehrswertschätzung einer Liegenschaft", Keywords: []string{"Verkehrswertschätzung", "Liegenschaft"}, Expected: "4C.28/2001"},
		{Query: "Mietzins", Keywords: []string{"Mietzins"}},
	}
	assert.Equal(t, want, got)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "queries: []", "no queries"},
		{"no keywords", "queries:\n  - query: x\n", "no keywords"},
		{"blank query", "queries:\n  - query: ' '\n    keywords: [a]\n", "query is empty"},
		{"blank keyword", "queries:\n  - query: x\n    keywords: ['']\n", "empty keyword"},
		{"bad yaml", "queries: [", "parse yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
