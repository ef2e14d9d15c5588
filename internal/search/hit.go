package search

import (
	"slices"
	"strings"

	"github.com/codalotl/legallens/internal/dataset"
)

type Response struct {
	Hits Hits `json:"hits"`
}

type Hits struct {
	Total Total `json:"total"`
	Hits  []Hit `json:"hits"`
}

type Total struct {
	Value int `json:"value"`
}

type Hit struct {
	ID     string `json:"_id"`
	Source Source `json:"_source"`
}

type Source struct {
	Source     string            `json:"source"`
	Hierarchy  []any             `json:"hierarchy"`
	Title      map[string]string `json:"title"`
	Canton     string            `json:"canton"`
	Date       string            `json:"date"`
	Attachment Attachment        `json:"attachment"`
	Reference  []string          `json:"reference"`
}

type Attachment struct {
	Content string `json:"content"`
}

// Title returns the German title.
func (h Hit) Title() string { return h.Source.Title["de"] }

func (h Hit) Content() string { return h.Source.Attachment.Content }

func (h Hit) References() []string { return h.Source.Reference }

// HasReference reports whether id is one of the hit's case references.
func (h Hit) HasReference(id string) bool {
	return slices.Contains(h.Source.Reference, id)
}

// PromptText renders the hit for the relevance classifier.
func (h Hit) PromptText() string {
	return strings.Join([]string{
		"ID: " + h.Source.Source,
		"Hierarchy: " + dataset.FormatValue(h.Source.Hierarchy),
		"Title: " + h.Title(),
		"Canton: " + h.Source.Canton,
		"Content:",
		h.Content(),
	}, "\n")
}
