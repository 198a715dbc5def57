package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dealerops/parts-forecast/internal/domain"
)

var headerRow = []interface{}{
	"Dealer", "Part Number", "Prediction Date",
	"Predicted Today", "Predicted Tomorrow", "Predicted Weekly", "Predicted Monthly",
}

// WriteWorkbook writes one sheet per dealer batch and returns the path
// of the created file.
func WriteWorkbook(dir string, batches []domain.ForecastBatch) (string, error) {
	if len(batches) == 0 {
		return "", fmt.Errorf("no forecast batches to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, batch := range batches {
		sheet := sheetName(batch.Dealer)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}

		if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}

		for j, rec := range batch.Records {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return "", err
			}
			row := []interface{}{
				rec.Dealer,
				rec.PartNumber,
				rec.PredictionDate.Format("2006-01-02"),
				rec.PredictedToday,
				rec.PredictedTomorrow,
				rec.PredictedWeekly,
				rec.PredictedMonthly,
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", j+2, err)
			}
		}
	}

	name := fmt.Sprintf("forecast_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

// sheetName keeps dealer codes within Excel's 31-character sheet limit.
func sheetName(dealer string) string {
	if dealer == "" {
		return "forecast"
	}
	if len(dealer) > 31 {
		return dealer[:31]
	}
	return dealer
}
