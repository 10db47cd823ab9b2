package reporting

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct {
	// Colors enables red/green rendering of signed columns
	Colors bool
}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{Colors: true}
}

// RenderTable prints t as a rounded table. Numeric columns are right aligned.
func (r *DefaultConsoleReporter) RenderTable(w io.Writer, t Table) {
	if w == nil {
		w = os.Stdout
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	if t.Title != "" {
		tw.SetTitle(t.Title)
	}

	if len(t.Header) > 0 {
		header := make(table.Row, len(t.Header))
		for i, h := range t.Header {
			header[i] = h
		}
		tw.AppendHeader(header)
	}

	signed := make(map[int]bool, len(t.Signed))
	for _, c := range t.Signed {
		signed[c] = true
	}

	numeric := make([]bool, len(t.Header))
	for i := range numeric {
		numeric[i] = len(t.Rows) > 0
	}

	rows := make([]table.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = v
			d, err := decimal.NewFromString(v)
			if i < len(numeric) && v != "" && err != nil {
				numeric[i] = false
			}
			if r.Colors && signed[i] && err == nil {
				switch d.Sign() {
				case 1:
					out[i] = text.FgGreen.Sprint(v)
				case -1:
					out[i] = text.FgRed.Sprint(v)
				}
			}
		}
		rows = append(rows, out)
	}
	tw.AppendRows(rows)

	configs := make([]table.ColumnConfig, 0, len(numeric))
	for i, isNum := range numeric {
		align := text.AlignLeft
		if isNum {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align})
	}
	tw.SetColumnConfigs(configs)

	if len(t.Rows) == 0 {
		tw.AppendRow(table.Row{"no data"})
	}
	tw.Render()
}

// Package-level convenience function
func PrintTable(t Table) {
	NewDefaultConsoleReporter().RenderTable(os.Stdout, t)
}
