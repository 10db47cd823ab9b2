package reporting

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// Package reporting renders unified exchange records as console tables,
// CSV, Excel workbooks or JSON

// Table is the tabular form every record set is converted to before rendering
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
	// Signed lists zero-based columns rendered red or green by sign
	Signed []int
}

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	RenderTable(w io.Writer, t Table)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteCSV(t Table, path string) error
	WriteXLSX(path string, tables ...Table) error
	WriteJSON(v interface{}, path string) error
}

// ExcelFormatter defines interface for Excel-specific formatting
type ExcelFormatter interface {
	WriteSheet(fx *excelize.File, sheet string, t Table, styles ExcelStyles) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(exchange, operation string) string
	EnsureDirectoryExists(path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	TitleStyle    int
	BaseStyle     int
	NumberStyle   int
	PositiveStyle int
	NegativeStyle int
}

// ReportingConfig holds configuration for reporting
type ReportingConfig struct {
	Format          Format
	Output          string
	OutputDirectory string
	// KeepInfo retains raw exchange payloads in JSON output
	KeepInfo bool
}
