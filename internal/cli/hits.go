package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/codalotl/legallens/internal/pipeline"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const defaultOutputWidth = 120

// outputWidth is the terminal width when out is a terminal, else defaultOutputWidth.
func outputWidth(out io.Writer) int {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			return w
		}
	}
	return defaultOutputWidth
}

// hitLine renders one classified hit on a single line no wider than width display columns.
func hitLine(h pipeline.HitResult, width int) string {
	refs := strings.Join(h.References, ",")
	if refs == "" {
		refs = "-"
	}
	title := strings.Join(strings.Fields(h.Title), " ")
	line := fmt.Sprintf("  %-17s %-4s %s  %s", "["+string(h.Relevance)+"]", h.Canton, refs, title)
	return runewidth.Truncate(line, width, "…")
}
