package cli

import (
	"bytes"
	"testing"

	"github.com/codalotl/legallens/internal/classify"
	"github.com/codalotl/legallens/internal/pipeline"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestHitLine(t *testing.T) {
	h := pipeline.HitResult{References: []string{"4C.180/2005"}, Title: "Kauf\nvon Vögeln", Canton: "CH", Relevance: classify.Relevant}
	assert.Equal(t, "  [relevant]        CH   4C.180/2005  Kauf von Vögeln", hitLine(h, 120))

	long := pipeline.HitResult{Title: "Sehr langer Titel über die Zucht von Vögeln", Canton: "ZH", Relevance: classify.NotRelevant}
	line := hitLine(long, 40)
	assert.LessOrEqual(t, runewidth.StringWidth(line), 40)
	assert.Contains(t, line, "…")
	assert.Contains(t, line, "  -  ")
}

func TestOutputWidth_NonTerminal(t *testing.T) {
	assert.Equal(t, defaultOutputWidth, outputWidth(&bytes.Buffer{}))
}
