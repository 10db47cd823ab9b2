package reporting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteXLSX writes one sheet per table into a new workbook
func (r *DefaultExcelReporter) WriteXLSX(path string, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	used := make(map[string]int, len(tables))
	for i, t := range tables {
		sheet := sheetName(t.Title, i, used)
		if i == 0 {
			if err := fx.SetSheetName(fx.GetSheetName(0), sheet); err != nil {
				return err
			}
		} else if _, err := fx.NewSheet(sheet); err != nil {
			return err
		}
		if err := r.WriteSheet(fx, sheet, t, styles); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", sheet, err)
		}
	}

	return fx.SaveAs(path)
}

// sheetName derives a unique Excel-safe sheet name from the table title
func sheetName(title string, index int, used map[string]int) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	if len(name) > 28 {
		name = name[:28]
	}
	used[name]++
	if n := used[name]; n > 1 {
		name = fmt.Sprintf("%s %d", name, n)
	}
	return name
}

// createExcelStyles creates all Excel styles
func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	light := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	// Header style - Dark slate background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.TitleStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13, Family: "Calibri"},
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: light})
	if err != nil {
		return styles, err
	}

	// Numbers keep their full precision, "General" does not round
	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    0,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    light,
	})
	if err != nil {
		return styles, err
	}

	styles.PositiveStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "008000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    light,
	})
	if err != nil {
		return styles, err
	}

	styles.NegativeStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "FF0000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    light,
	})
	return styles, err
}

// WriteSheet writes the title in row 1, the header in row 2 and the rows
// below. Decimal cells are stored as numbers.
func (r *DefaultExcelReporter) WriteSheet(fx *excelize.File, sheet string, t Table, styles ExcelStyles) error {
	if err := fx.SetCellValue(sheet, "A1", t.Title); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "A1", styles.TitleStyle); err != nil {
		return err
	}

	for i, h := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle)
		width := float64(len(h) + 4)
		if width < 14 {
			width = 14
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		fx.SetColWidth(sheet, col, col, width)
	}

	signed := make(map[int]bool, len(t.Signed))
	for _, c := range t.Signed {
		signed[c] = true
	}

	for ri, row := range t.Rows {
		for ci, v := range row {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+3)
			style := styles.BaseStyle
			if d, err := decimal.NewFromString(v); err == nil && v != "" {
				f, _ := d.Float64()
				if err := fx.SetCellFloat(sheet, cell, f, -1, 64); err != nil {
					return err
				}
				style = styles.NumberStyle
				if signed[ci] {
					switch d.Sign() {
					case 1:
						style = styles.PositiveStyle
					case -1:
						style = styles.NegativeStyle
					}
				}
			} else if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			fx.SetCellStyle(sheet, cell, cell, style)
		}
	}

	if len(t.Header) > 0 {
		fx.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      2,
			TopLeftCell: "A3",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

// Package-level convenience function
func WriteXLSX(path string, tables ...Table) error {
	return NewDefaultExcelReporter().WriteXLSX(path, tables...)
}
