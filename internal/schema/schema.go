// Package schema defines the columns of a Federal Supreme Court judgment record and the human-readable label used for each when records are rendered as text.
//
// Columns is the single source of truth for both export rendering and any tooling that needs the record's field order.
package schema

// Column maps a dataset key to its display label.
type Column struct {
	Key   string
	Label string
}

// Keys used by code outside of rendering.
const (
	KeyDocRef      = "docref"
	KeyLeadingCase = "leading_case"
	KeyText        = "text"
)

// Columns is ordered: rendering emits one line per column in this order.
var Columns = []Column{
	{"docref", "Case Number"},
	{"url", "Judgment URL"},
	{"date", "Judgment Date"},
	{"year", "Judgment Year"},
	{"proc_type", "Proceeding Type"},
	{"merged_cases", "Merged Cases"},
	{"division", "Court Division"},
	{"division_type", "Division Type"},
	{"n_judges", "Number of Judges"},
	{"language", "Language"},
	{"length", "Judgment Length"},
	{"area_general", "General Area of Law"},
	{"area_intermediate", "Intermediate Area of Law"},
	{"area_detailed", "Detailed Area of Law"},
	{"topic", "Topic"},
	{"issue", "Issue"},
	{"source_date", "Date of Appealed Decision"},
	{"source_canton", "Origin of Appealed Decision"},
	{"proc_duration", "Duration of Federal Supreme Court Proceedings"},
	{"app_class", "Appellant Class"},
	{"app_represented", "Appellant Represented by Lawyer"},
	{"resp_class", "Respondent Class"},
	{"resp_represented", "Respondent Represented by Lawyer"},
	{"outcome", "Outcome"},
	{"outcome_binary", "Binary Outcome"},
	{"cited_bger", "Cited Unpublished Federal Supreme Court Judgments"},
	{"n_cited_bger", "Number of Cited Unpublished Federal Supreme Court Judgments"},
	{"cited_bge", "Cited Published Federal Supreme Court Judgments"},
	{"n_cited_bge", "Number of Cited Published Federal Supreme Court Judgments"},
	{"leading_case", "Publication as Leading Case"},
	{"text", "Judgment Text"},
	{"doi_version", "Dataset Version DOI"},
}

// Label returns the label for key. ok is false if key is not a known column.
func Label(key string) (label string, ok bool) {
	for _, c := range Columns {
		if c.Key == key {
			return c.Label, true
		}
	}
	return "", false
}

// Keys returns the column keys in render order.
func Keys() []string {
	keys := make([]string, len(Columns))
	for i, c := range Columns {
		keys[i] = c.Key
	}
	return keys
}
