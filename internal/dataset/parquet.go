package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
)

// LoadParquet reads every row of a parquet file. Leaf columns are keyed by their top-level field name; repeated (list) columns become []any.
// DATE columns become Date and TIMESTAMP or INT96 columns become UTC time.Time.
func LoadParquet(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("dataset: open parquet: %w", err)
	}

	schema := pf.Schema()
	columns := schema.Columns()
	names := make([]string, len(columns))
	repeated := make([]bool, len(columns))
	logical := make([]*format.LogicalType, len(columns))
	for i, path := range columns {
		names[i] = path[0]
		repeated[i] = len(path) > 1
		if leaf, ok := schema.Lookup(path...); ok {
			logical[i] = leaf.Node.Type().LogicalType()
		}
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	var records []Record
	buf := make([]parquet.Row, 64)
	for {
		n, err := reader.ReadRows(buf)
		for _, row := range buf[:n] {
			records = append(records, recordFromRow(row, names, repeated, logical))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}

func recordFromRow(row parquet.Row, names []string, repeated []bool, logical []*format.LogicalType) Record {
	rec := make(Record, len(names))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(names) {
			continue
		}
		name := names[col]
		val := parquetValue(v, logical[col])
		if !repeated[col] {
			rec[name] = val
			continue
		}
		list, _ := rec[name].([]any)
		if val != nil {
			list = append(list, val)
		}
		rec[name] = list
	}
	return rec
}

func parquetValue(v parquet.Value, lt *format.LogicalType) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		if lt != nil && lt.Date != nil {
			return Date{time.Unix(int64(v.Int32())*secondsPerDay, 0).UTC()}
		}
		return int64(v.Int32())
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return timestampOf(v.Int64(), lt.Timestamp.Unit)
		}
		return v.Int64()
	case parquet.Int96:
		return int96Time(v.Int96())
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

const (
	secondsPerDay = 24 * 60 * 60
	// julianUnixEpoch is the Julian day number of 1970-01-01.
	julianUnixEpoch = 2440588
)

func timestampOf(n int64, unit format.TimeUnit) time.Time {
	switch {
	case unit.Millis != nil:
		return time.UnixMilli(n).UTC()
	case unit.Micros != nil:
		return time.UnixMicro(n).UTC()
	default:
		return time.Unix(0, n).UTC()
	}
}

// int96Time decodes the legacy impala timestamp: nanoseconds within the day followed by the Julian day.
func int96Time(i [3]uint32) time.Time {
	nanos := int64(i[1])<<32 | int64(i[0])
	days := int64(i[2]) - julianUnixEpoch
	return time.Unix(days*secondsPerDay, nanos).UTC()
}
