package report

import (
	"fmt"
	"time"

	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
)

// WorkerPDF renders one worker's shift history for the given range.
func WorkerPDF(worker *models.Worker, shifts []*shift.Shift, r shift.DateRange, loc *time.Location, now time.Time) ([]byte, error) {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Shift report - "+worker.DisplayName(), props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(r.String(), props.Text{
					Top:   3,
					Style: consts.Normal,
					Align: consts.Center,
					Size:  12,
				})
			})
		})
	})

	headers := []string{"Date", "In", "Out", "Duration", "Activities"}
	rows := make([][]string, 0, len(shifts))
	for _, s := range shifts {
		row := ShiftRow(s, loc, now)
		rows = append(rows, []string{row[0], row[1], row[2], row[3], row[6]})
	}

	if len(rows) == 0 {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("No shifts in this period", props.Text{Top: 5, Size: 10, Align: consts.Center})
			})
		})
	} else {
		m.TableList(headers, rows, props.TableList{
			HeaderProp: props.TableListContent{
				Size:      10,
				GridSizes: []uint{2, 1, 1, 3, 5},
			},
			ContentProp: props.TableListContent{
				Size:      9,
				GridSizes: []uint{2, 1, 1, 3, 5},
			},
			Align:                consts.Center,
			AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
			HeaderContentSpace:   1,
			Line:                 false,
		})
	}

	m.Row(20, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Total worked: %s", FormatDuration(ClosedTotal(shifts))), props.Text{
				Top:   10,
				Style: consts.Bold,
				Align: consts.Right,
				Size:  12,
			})
		})
	})

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("error rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}
