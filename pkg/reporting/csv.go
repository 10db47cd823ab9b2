package reporting

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteCSV writes the header and rows of t to path. An .xlsx path is
// delegated to the Excel writer.
func (r *DefaultCSVReporter) WriteCSV(t Table, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteXLSX(path, t)
	}

	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return r.Encode(f, t)
}

// Encode writes t as CSV to w
func (r *DefaultCSVReporter) Encode(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Package-level convenience function
func WriteCSV(t Table, path string) error {
	return NewDefaultCSVReporter().WriteCSV(t, path)
}
