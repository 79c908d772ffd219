package audit

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

const (
	sheetMissing       = "Missing Products"
	sheetDiscrepancies = "Discrepancies"
)

// ExportXLSX renders the report as a workbook with one sheet per section.
// The caller owns closing the returned file.
func ExportXLSX(result *types.AuditResult) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetMissing)
	if _, err := f.NewSheet(sheetDiscrepancies); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	if err := writeSheet(f, sheetMissing, headerStyle, missingExportHeader, missingRows(result)); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetDiscrepancies, headerStyle, discrepancyHeader, discrepancyRows(result)); err != nil {
		return nil, err
	}
	return f, nil
}

func missingRows(result *types.AuditResult) [][]string {
	var rows [][]string
	for _, g := range result.MissingProductGroups {
		for _, v := range g.Variants {
			rows = append(rows, missingExportRow(g, v))
		}
	}
	return rows
}

func discrepancyRows(result *types.AuditResult) [][]string {
	var rows [][]string
	for _, d := range result.Discrepancies {
		rows = append(rows, discrepancyRow(d))
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []string, rows [][]string) error {
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("writing %s header: %w", sheet, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
			}
		}
	}
	return nil
}
