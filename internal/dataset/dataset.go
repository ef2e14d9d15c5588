// Package dataset loads judgment records from tabular files and provides the value semantics the exporter relies on (truthiness and text formatting).
//
// Supported formats, by file extension: .parquet, .jsonl/.ndjson, .csv, .xlsx. The whole file is materialized into memory.
package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Record is one judgment: short column keys (see package schema) to scalar values. Records are never mutated after loading.
type Record map[string]any

// Date is a calendar day with no time of day, as stored in DATE columns.
type Date struct {
	time.Time
}

// Load reads all records from path, choosing a decoder by extension.
func Load(path string) ([]Record, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return LoadParquet(path)
	case ".xlsx":
		return LoadXLSX(path)
	case ".jsonl", ".ndjson", ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if ext == ".csv" {
			return LoadCSV(f)
		}
		return LoadJSONL(f)
	default:
		return nil, fmt.Errorf("dataset: unsupported file type %q (want .parquet, .jsonl, .ndjson, .csv, or .xlsx)", ext)
	}
}

// Filter returns the records whose field is truthy, preserving order.
func Filter(records []Record, field string) []Record {
	var out []Record
	for _, r := range records {
		if Truthy(r[field]) {
			out = append(out, r)
		}
	}
	return out
}

// Truthy reports whether v counts as set. Strings that parse as booleans ("true", "False", "1", "0", ...) use the parsed value; other strings are truthy when non-empty.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

// FormatValue renders v the way the research notebooks printed dataset values: booleans as True/False, missing values as None, integral floats with a trailing
// ".0", and lists in bracketed, quoted form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return x
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	case Date:
		return x.Format("2006-01-02")
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if s, ok := e.(string); ok {
				parts[i] = "'" + s + "'"
			} else {
				parts[i] = FormatValue(e)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e16:
		return strconv.FormatFloat(f, 'f', 1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
