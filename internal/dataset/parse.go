// Package dataset ingests raw CSV or JSON tables into the typed Dataset
// shape the forecasting core consumes. Ingestion owns everything the core
// refuses to deal with: column-type inference, numeric normalization
// ($ and thousands separators, percentages, K/M/B volume suffixes), date
// normalization to ISO YYYY-MM-DD, and row ordering by ascending date.
package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"market-forecast-lab/internal/domain"
	"market-forecast-lab/internal/idhash"
)

// Ingestion errors.
var (
	ErrEmptyInput      = errors.New("dataset has no data rows")
	ErrNoDateColumn    = errors.New("no date column detected")
	ErrNoNumericColumn = errors.New("no numeric column detected")
	ErrRaggedRow       = errors.New("row width does not match header")
)

// Parse sniffs the payload format and dispatches: a leading '[' or '{'
// means JSON, anything else is treated as CSV.
func Parse(r io.Reader, name string) (*domain.Dataset, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil {
			return nil, ErrEmptyInput
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := br.ReadByte(); err != nil {
				return nil, ErrEmptyInput
			}
			continue
		case '[', '{':
			return ParseJSON(br, name)
		default:
			return ParseCSV(br, name)
		}
	}
}

// ParseCSV reads a header row plus data rows and builds a typed dataset.
func ParseCSV(r io.Reader, name string) (*domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Width is checked against the header below so the error carries the
	// package sentinel.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(records)+2, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d",
				ErrRaggedRow, len(records)+2, len(rec), len(header))
		}
		records = append(records, rec)
	}
	return build(name, header, records)
}

// ParseJSON reads an array of flat objects. Every value may be a string
// (normalized like a CSV cell) or a JSON number.
func ParseJSON(r io.Reader, name string) (*domain.Dataset, error) {
	var raw []map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json dataset: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyInput
	}

	// Column order: first appearance across rows, so ragged objects still
	// produce a stable header.
	var header []string
	seen := make(map[string]bool)
	for _, obj := range raw {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}

	records := make([][]string, len(raw))
	for i, obj := range raw {
		rec := make([]string, len(header))
		for j, k := range header {
			v, ok := obj[k]
			if !ok || v == nil {
				continue
			}
			switch t := v.(type) {
			case string:
				rec[j] = t
			case float64:
				rec[j] = formatJSONNumber(t)
			case bool:
				if t {
					rec[j] = "1"
				} else {
					rec[j] = "0"
				}
			default:
				rec[j] = fmt.Sprintf("%v", t)
			}
		}
		records[i] = rec
	}
	return build(name, header, records)
}

// build runs type inference over the raw cells and assembles the dataset:
// typed columns, rows keyed by the detected date column, ascending date
// order, content-derived id.
func build(name string, header []string, records [][]string) (*domain.Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	columns := inferColumns(header, records)
	dateIdx := pickDateColumn(columns)
	if dateIdx < 0 {
		return nil, ErrNoDateColumn
	}

	numericIdx := make([]int, 0, len(columns))
	for i, c := range columns {
		if c.Type == domain.ColumnNumeric {
			numericIdx = append(numericIdx, i)
		}
	}
	if len(numericIdx) == 0 {
		return nil, ErrNoNumericColumn
	}

	rows := make(domain.Series, 0, len(records))
	for n, rec := range records {
		date, ok := normalizeDate(rec[dateIdx])
		if !ok {
			return nil, fmt.Errorf("row %d: unparseable date %q", n+1, rec[dateIdx])
		}
		values := make(map[string]float64, len(numericIdx))
		for _, i := range numericIdx {
			if v, ok := parseNumeric(rec[i]); ok {
				values[columns[i].Name] = v
			}
		}
		rows = append(rows, domain.TimeSeriesRow{Date: date, Values: values})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	return &domain.Dataset{
		ID:          idhash.ComputeDatasetID(name, rows),
		Name:        name,
		Columns:     columns,
		Rows:        rows,
		CreatedAtMs: time.Now().UnixMilli(),
	}, nil
}

// pickDateColumn prefers a column literally named "date", then falls back
// to the first date-typed column.
func pickDateColumn(columns []domain.Column) int {
	for i, c := range columns {
		if c.Type == domain.ColumnDate && strings.ToLower(c.Name) == "date" {
			return i
		}
	}
	for i, c := range columns {
		if c.Type == domain.ColumnDate {
			return i
		}
	}
	return -1
}

// formatJSONNumber renders a JSON number the way inference expects:
// integers without an exponent or trailing zeros.
func formatJSONNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
