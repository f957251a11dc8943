// Package dataset loads the HR spreadsheet into an in-memory, column-oriented
// table that is read-only for the lifetime of the process.
package dataset

import (
	"fmt"
	"strings"
)

// EmployeeNameColumn is the conventional column holding employee names.
const EmployeeNameColumn = "Employee Name"

// Format identifies the file type a dataset was parsed from.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Dataset is an ordered set of named, row-aligned string columns.
// A Dataset is never mutated after construction, so concurrent reads are safe.
type Dataset struct {
	source  string
	format  Format
	columns []string
	values  [][]string // values[col][row]
	index   map[string]int
	rows    int
}

// New builds a Dataset from a header and row-major records.
// Records shorter than the header are padded with empty strings. When a
// record is wider than the header, the header grows to fit and each added
// column is named "Unnamed: N".
func New(header []string, records [][]string) *Dataset {
	width := len(header)
	for _, rec := range records {
		width = max(width, len(rec))
	}
	if width > len(header) {
		wide := make([]string, width)
		copy(wide, header)
		header = wide
	}
	cols := uniqueColumnNames(header)

	values := make([][]string, len(cols))
	for i := range values {
		values[i] = make([]string, 0, len(records))
	}

	for _, rec := range records {
		for c := range cols {
			v := ""
			if c < len(rec) {
				v = rec[c]
			}
			values[c] = append(values[c], v)
		}
	}

	d := &Dataset{
		columns: cols,
		values:  values,
		rows:    len(records),
	}
	d.reindex()
	return d
}

// Columns returns the column labels in file order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.rows
}

// HasColumn reports whether a column with exactly this label exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns a copy of the named column's values in row order.
func (d *Dataset) Column(name string) ([]string, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(d.values[i]))
	copy(out, d.values[i])
	return out, true
}

// Value returns a single cell.
func (d *Dataset) Value(row int, column string) (string, bool) {
	i, ok := d.index[column]
	if !ok || row < 0 || row >= d.rows {
		return "", false
	}
	return d.values[i][row], true
}

// Row returns row i keyed by column label.
func (d *Dataset) Row(i int) map[string]string {
	if i < 0 || i >= d.rows {
		return nil
	}
	row := make(map[string]string, len(d.columns))
	for c, name := range d.columns {
		row[name] = d.values[c][i]
	}
	return row
}

// Head returns up to n leading rows. A negative n returns no rows.
func (d *Dataset) Head(n int) []map[string]string {
	n = max(n, 0)
	if n > d.rows {
		n = d.rows
	}
	out := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.Row(i))
	}
	return out
}

// Source returns the path the dataset was loaded from, if any.
func (d *Dataset) Source() string {
	return d.source
}

// Format returns the file format the dataset was parsed from, if any.
func (d *Dataset) Format() Format {
	return d.format
}

// NormalizeColumns trims surrounding whitespace from every column label.
// Applying it twice yields the same labels as applying it once.
func NormalizeColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// normalize applies the post-load cleanup: trimmed labels and trimmed
// employee names.
func (d *Dataset) normalize() {
	d.columns = NormalizeColumns(d.columns)
	d.reindex()

	if i, ok := d.index[EmployeeNameColumn]; ok {
		for r, v := range d.values[i] {
			d.values[i][r] = strings.TrimSpace(v)
		}
	}
}

// reindex rebuilds the label lookup. On duplicate labels the first wins.
func (d *Dataset) reindex() {
	d.index = make(map[string]int, len(d.columns))
	for i, c := range d.columns {
		if _, seen := d.index[c]; !seen {
			d.index[c] = i
		}
	}
}

// uniqueColumnNames names blank header cells "Unnamed: N" and suffixes
// repeated labels with ".1", ".2", ... so every column stays addressable.
func uniqueColumnNames(header []string) []string {
	cols := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		cols[i] = name
	}
	return cols
}
