package report

import (
	"fmt"
	"time"

	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/xuri/excelize/v2"
)

const (
	shiftsSheet  = "Shifts"
	summarySheet = "Summary"
)

// WorkerShifts is one worker's section of a team report.
type WorkerShifts struct {
	Worker *models.Worker
	Shifts []*shift.Shift
}

// TeamWorkbook writes every worker's shifts to one sheet and per-worker
// totals to a second.
func TeamWorkbook(entries []WorkerShifts, loc *time.Location, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", shiftsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	header := append([]interface{}{"WORKER"}, toCells(ShiftHeaders)...)
	if err := f.SetSheetRow(shiftsSheet, "A1", &header); err != nil {
		return nil, err
	}
	summaryHeader := []interface{}{"WORKER", "SHIFTS", "OPEN", "TOTAL HOURS"}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return nil, err
	}

	row := 2
	for i, e := range entries {
		open := 0
		for _, s := range e.Shifts {
			if s.IsOpen() {
				open++
			}
			cells := append([]interface{}{e.Worker.DisplayName()}, toCells(ShiftRow(s, loc, now))...)
			if err := setRow(f, shiftsSheet, row, cells); err != nil {
				return nil, err
			}
			row++
		}

		hours := ClosedTotal(e.Shifts).Hours()
		summary := []interface{}{e.Worker.DisplayName(), len(e.Shifts), open, fmt.Sprintf("%.2f", hours)}
		if err := setRow(f, summarySheet, i+2, summary); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
