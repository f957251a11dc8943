package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// EmployeeRows is a small HR table used across tests.
// Names and labels carry stray whitespace on purpose.
var EmployeeRows = [][]string{
	{" Employee Name ", "Department", " Salary", "Performance Rating"},
	{"  Alice Smith", "Retail Banking", "85000", "4.5"},
	{"Bob Jones  ", "Operations", "62000", "3.8"},
	{"Carol White", "Retail Banking", "91000", "4.9"},
	{" Dan Brown ", "Risk", "78000", "4.1"},
	{"Eve Black", "Operations", "55000", "3.2"},
}

// WriteCSV writes rows to path as CSV.
func WriteCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// WriteXLSX writes rows to the first sheet of a new workbook at path.
func WriteXLSX(t *testing.T, path string, rows [][]string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &cells); err != nil {
			t.Fatalf("failed to write row %d: %v", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save %s: %v", path, err)
	}
}

// EmployeeCSV writes EmployeeRows into a fresh temp directory and returns
// the file path.
func EmployeeCSV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "employees.csv")
	WriteCSV(t, path, EmployeeRows)
	return path
}
