package ziparchive

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

const reportSheet = "Classification"

// buildReport renders the per-document classification summary the results
// view shows, as a workbook travelling inside the archive.
func buildReport(groups []domain.CategoryGroup) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"ID", "File", "Category", "Confidence", "Status"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(reportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header %q: %w", h, err)
		}
	}

	row := 2
	for _, group := range groups {
		for _, doc := range group.Documents {
			values := []any{doc.ID, doc.OriginalName, group.Category, doc.Confidence, string(doc.Status)}
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return nil, fmt.Errorf("report cell: %w", err)
				}
				if err := f.SetCellValue(reportSheet, cell, v); err != nil {
					return nil, fmt.Errorf("write report row %d: %w", row, err)
				}
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
