// Package queries holds the natural-language queries the pipeline evaluates, each with the keywords sent to search and the case reference expected among the hits.
package queries

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Spec struct {
	Query    string   `yaml:"query"`
	Keywords []string `yaml:"keywords"`
	Expected string   `yaml:"expected,omitempty"` // case reference (ex: "4C.180/2005"); may be empty
}

// Defaults returns the built-in query set.
func Defaults() []Spec {
	return []Spec{
		{Query: "Kauf von Vögel für die Zucht", Keywords: []string{"Vögel", "Zucht"}, Expected: "4C.180/2005"},
		{Query: "Recht auf Kenntnis der Eltern bei Adoption", Keywords: []string{"Recht", "Kenntnis", "Eltern", "Adoption"}, Expected: "1P.460/2001"},
	}
}

type file struct {
	Queries []Spec `yaml:"queries"`
}

// Load reads a YAML file of the form:
//
//	queries:
//	  - query: Kauf von Vögel für die Zucht
//	    keywords: [Vögel, Zucht]
//	    expected: 4C.180/2005
func Load(path string) ([]Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) ([]Spec, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("queries: parse yaml: %w", err)
	}
	if len(f.Queries) == 0 {
		return nil, fmt.Errorf("queries: no queries defined")
	}
	for i, s := range f.Queries {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("queries: entry %d: %w", i+1, err)
		}
	}
	return f.Queries, nil
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Query) == "" {
		return fmt.Errorf("query is empty")
	}
	if len(s.Keywords) == 0 {
		return fmt.Errorf("query %q has no keywords", s.Query)
	}
	for _, k := range s.Keywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("query %q has an empty keyword", s.Query)
		}
	}
	return nil
}
