package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format selects how results are rendered
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// Formats lists the accepted format names
var Formats = []string{string(FormatTable), string(FormatJSON), string(FormatCSV), string(FormatXLSX)}

// ParseFormat accepts a format name case-insensitively; empty means table
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q, supported formats: %s", s, strings.Join(Formats, ", "))
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatXLSX:
		return ".xlsx"
	}
	return ".txt"
}

var (
	_ ConsoleReporter = (*DefaultReporter)(nil)
	_ FileReporter    = (*DefaultReporter)(nil)
	_ ExcelFormatter  = (*DefaultExcelReporter)(nil)
	_ PathManager     = (*DefaultPathManager)(nil)
)

// DefaultReporter implements the complete Reporter interface
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	json    *DefaultJSONFormatter
	paths   *DefaultPathManager
}

// NewDefaultReporter creates a new default reporter with all functionality
func NewDefaultReporter() *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		json:    NewDefaultJSONFormatter(),
		paths:   NewDefaultPathManager(),
	}
}

func (r *DefaultReporter) RenderTable(w io.Writer, t Table) {
	r.console.RenderTable(w, t)
}

func (r *DefaultReporter) WriteCSV(t Table, path string) error {
	return r.csv.WriteCSV(t, path)
}

func (r *DefaultReporter) WriteXLSX(path string, tables ...Table) error {
	return r.excel.WriteXLSX(path, tables...)
}

func (r *DefaultReporter) WriteJSON(v interface{}, path string) error {
	return r.json.WriteJSON(v, path)
}

func (r *DefaultReporter) GetDefaultOutputDir(exchange, operation string) string {
	return r.paths.GetDefaultOutputDir(exchange, operation)
}

func (r *DefaultReporter) EnsureDirectoryExists(path string) error {
	return r.paths.EnsureDirectoryExists(path)
}

// ReportingManager renders one result set according to the configured format
type ReportingManager struct {
	reporter *DefaultReporter
	config   ReportingConfig
	out      io.Writer
}

// NewReportingManager creates a new reporting manager
func NewReportingManager(config ReportingConfig) *ReportingManager {
	if config.Format == "" {
		config.Format = FormatTable
	}
	reporter := NewDefaultReporter()
	if config.OutputDirectory != "" {
		reporter.paths.Root = config.OutputDirectory
	}
	reporter.json.KeepInfo = config.KeepInfo
	return &ReportingManager{reporter: reporter, config: config, out: os.Stdout}
}

// SetOutput redirects console output
func (m *ReportingManager) SetOutput(w io.Writer) {
	m.out = w
}

// Report renders t, or raw for JSON output. Table and JSON go to the console
// unless an output file is configured; CSV and XLSX always go to a file,
// derived from exchange, operation and symbol when none is set. The written
// path is returned, empty for console output.
func (m *ReportingManager) Report(exchange, operation, symbol string, t Table, raw interface{}) (string, error) {
	path := m.config.Output
	switch m.config.Format {
	case FormatTable:
		if path == "" {
			m.reporter.RenderTable(m.out, t)
			return "", nil
		}
		if err := m.reporter.EnsureDirectoryExists(path); err != nil {
			return "", err
		}
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		m.reporter.RenderTable(f, t)
		return path, nil

	case FormatJSON:
		if raw == nil {
			raw = t
		}
		if path == "" {
			return "", m.reporter.json.Print(m.out, raw)
		}
		return path, m.reporter.WriteJSON(raw, path)

	case FormatCSV, FormatXLSX:
		if path == "" {
			path = m.reporter.paths.OutputFile(exchange, operation, symbol, m.config.Format)
		}
		if m.config.Format == FormatXLSX {
			return path, m.reporter.WriteXLSX(path, t)
		}
		return path, m.reporter.WriteCSV(t, path)
	}
	return "", fmt.Errorf("unknown output format %q", m.config.Format)
}
