package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding is the encoding used by gpt-3.5-turbo and gpt-4 class models.
const DefaultEncoding = "cl100k_base"

// Counter counts model tokens in text.
type Counter interface {
	Count(text string) (int, error)
}

// CounterFunc adapts a function to a Counter.
type CounterFunc func(text string) (int, error)

func (f CounterFunc) Count(text string) (int, error) { return f(text) }

type codecCounter struct {
	codec tokenizer.Codec
}

// New returns a Counter for the named tiktoken encoding (ex: "cl100k_base", "o200k_base"). An empty encoding means DefaultEncoding.
func New(encoding string) (Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	codec, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, fmt.Errorf("tokens: unknown encoding %q: %w", encoding, err)
	}
	return codecCounter{codec: codec}, nil
}

func (c codecCounter) Count(text string) (int, error) {
	return c.codec.Count(text)
}
