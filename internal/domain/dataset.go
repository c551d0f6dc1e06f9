package domain

// ColumnType is the inferred type of a dataset column.
type ColumnType string

// Column types recognized by ingestion.
const (
	ColumnDate    ColumnType = "date"
	ColumnNumeric ColumnType = "numeric"
	ColumnText    ColumnType = "text"
)

// Column is one declared dataset column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Dataset is a parsed tabular dataset: column metadata plus rows ordered by
// ascending date. Owned by ingestion; the forecasting core treats it as
// read-only.
type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Columns     []Column `json:"columns"`
	Rows        Series   `json:"rows"`
	CreatedAtMs int64    `json:"created_at_ms"`
}

// NumericColumns returns the names of numeric columns in declaration order.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, c := range d.Columns {
		if c.Type == ColumnNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// HasNumericColumn reports whether the named column is declared numeric.
func (d *Dataset) HasNumericColumn(name string) bool {
	for _, c := range d.Columns {
		if c.Name == name && c.Type == ColumnNumeric {
			return true
		}
	}
	return false
}
