package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Count(t *testing.T) {
	testCases := []struct {
		name     string
		encoding string
		text     string
		want     int
	}{
		{name: "default encoding", encoding: "", text: "hello world", want: 2},
		{name: "explicit cl100k", encoding: "cl100k_base", text: "hello world", want: 2},
		{name: "o200k", encoding: "o200k_base", text: "hello world", want: 2},
		{name: "empty text", encoding: "", text: "", want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.encoding)
			require.NoError(t, err)
			got, err := c.Count(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew_UnknownEncoding(t *testing.T) {
	_, err := New("not_an_encoding")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_an_encoding")
}

func TestCount_GrowsWithText(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	short, err := c.Count("Judgment Text: foo")
	require.NoError(t, err)
	long, err := c.Count(strings.Repeat("Judgment Text: foo\n", 50))
	require.NoError(t, err)
	assert.Greater(t, long, short)
}

func TestCounterFunc(t *testing.T) {
	c := CounterFunc(func(text string) (int, error) { return len(text), nil })
	n, err := c.Count("abcd")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
