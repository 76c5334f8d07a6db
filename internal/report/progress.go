// Package report renders class-progress boards for teachers.
package report

import (
	"fmt"
	"io"
	"math"

	"lms-quiz-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

const progressSheet = "Progress"

var progressHeaders = []interface{}{"Rank", "Learner", "User ID", "Attempts", "Best score (%)", "Last score (%)", "Passed", "Last update"}

// WriteProgressXLSX streams a progress board as an .xlsx workbook.
func WriteProgressXLSX(w io.Writer, progress domain.ClassProgress) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", progressSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(progressSheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}
	if err := sw.SetRow("A1", progressHeaders); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	for i, entry := range progress.Entries {
		passed := "No"
		if entry.Passed {
			passed = "Yes"
		}
		row := []interface{}{
			i + 1,
			sanitize(entry.DisplayName),
			sanitize(entry.UserID),
			entry.Attempts,
			round1(entry.BestScore),
			round1(entry.LastScore),
			passed,
			entry.LastUpdated.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

// round1 is presentation rounding; stored scores keep full precision.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// sanitize stops user-supplied names from being evaluated as spreadsheet formulas.
func sanitize(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
