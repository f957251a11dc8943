package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// DefaultExcelFile is checked first when loading a directory.
	DefaultExcelFile = "Banking Demo File.xlsx"
	// DefaultCSVFile is checked when the named workbook is missing.
	DefaultCSVFile = "Banking Demo File.xlsx - Sheet1.csv"
)

// ErrNotFound is returned when a directory holds no spreadsheet or CSV file.
var ErrNotFound = errors.New("no Excel or CSV file found")

type loadOptions struct {
	excelFile string
	csvFile   string
}

// Option customizes Load.
type Option func(*loadOptions)

// WithExcelFile overrides the preferred workbook file name.
func WithExcelFile(name string) Option {
	return func(o *loadOptions) {
		if name != "" {
			o.excelFile = name
		}
	}
}

// WithCSVFile overrides the preferred CSV file name.
func WithCSVFile(name string) Option {
	return func(o *loadOptions) {
		if name != "" {
			o.csvFile = name
		}
	}
}

// Load finds and parses the HR dataset in dir.
//
// Resolution order:
//  1. the named workbook (first sheet)
//  2. the named CSV file
//  3. the first *.xlsx, then the first *.csv, each in lexical order
//
// Column labels are trimmed, as are the values of the "Employee Name"
// column when present.
func Load(dir string, opts ...Option) (*Dataset, error) {
	o := loadOptions{
		excelFile: DefaultExcelFile,
		csvFile:   DefaultCSVFile,
	}
	for _, opt := range opts {
		opt(&o)
	}

	path, err := Locate(dir, o.excelFile, o.csvFile)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// Locate returns the file Load would parse for dir.
func Locate(dir, excelFile, csvFile string) (string, error) {
	for _, name := range []string{excelFile, csvFile} {
		if name == "" {
			continue
		}
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	// filepath.Glob returns matches in lexical order.
	xlsx, err := filepath.Glob(filepath.Join(globEscape(dir), "*.xlsx"))
	if err != nil {
		return "", fmt.Errorf("failed to glob workbooks: %w", err)
	}
	csvs, err := filepath.Glob(filepath.Join(globEscape(dir), "*.csv"))
	if err != nil {
		return "", fmt.Errorf("failed to glob csv files: %w", err)
	}

	files := append(xlsx, csvs...)
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
	}
	return files[0], nil
}

// LoadFile parses a single .xlsx or .csv file.
func LoadFile(path string) (*Dataset, error) {
	var (
		header  []string
		records [][]string
		format  Format
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		format = FormatXLSX
		header, records, err = readXLSX(path)
	case ".csv":
		format = FormatCSV
		header, records, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported dataset file type: %s", path)
	}
	if err != nil {
		return nil, err
	}

	d := New(header, records)
	d.source = path
	d.format = format
	d.normalize()
	return d, nil
}

// readXLSX reads the first sheet of a workbook.
func readXLSX(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return splitHeader(rows)
}

// readCSV reads a comma separated file, tolerating a UTF-8 BOM.
func readCSV(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return splitHeader(rows)
}

// splitHeader separates the header row and drops fully blank rows.
func splitHeader(rows [][]string) ([]string, [][]string, error) {
	var header []string
	var records [][]string
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		records = append(records, row)
	}
	if header == nil {
		return nil, nil, errors.New("dataset has no header row")
	}
	return header, records, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// globEscape protects glob metacharacters in directory names.
func globEscape(dir string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(dir)
}
