package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns_UniqueKeysAndLabels(t *testing.T) {
	seenKeys := map[string]bool{}
	seenLabels := map[string]bool{}
	for _, c := range Columns {
		require.NotEmpty(t, c.Key)
		require.NotEmpty(t, c.Label)
		assert.False(t, seenKeys[c.Key], "duplicate key %q", c.Key)
		assert.False(t, seenLabels[c.Label], "duplicate label %q", c.Label)
		seenKeys[c.Key] = true
		seenLabels[c.Label] = true
	}
}

func TestLabel(t *testing.T) {
	label, ok := Label(KeyLeadingCase)
	require.True(t, ok)
	assert.Equal(t, "Publication as Leading Case", label)

	_, ok = Label("nope")
	assert.False(t, ok)
}

func TestKeys_Order(t *testing.T) {
	keys := Keys()
	require.Len(t, keys, len(Columns))
	assert.Equal(t, KeyDocRef, keys[0])
	assert.Equal(t, "doi_version", keys[len(keys)-1])
}
