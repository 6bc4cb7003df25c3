// Package report renders shift histories as text tables, PDF and XLSX.
package report

import (
	"fmt"
	"strings"
	"time"

	"timeclock/internal/db/models"
	"timeclock/internal/shift"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatTable creates a fixed-width table wrapped in a code block.
func FormatTable(headers []string, rows [][]string) string {
	// Find the maximum width for each column
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var result strings.Builder

	result.WriteString("```\n")
	for i, header := range headers {
		result.WriteString(fmt.Sprintf("%-*s", widths[i]+2, header))
	}
	result.WriteString("\n")

	for _, width := range widths {
		result.WriteString(strings.Repeat("-", width+2))
	}
	result.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				result.WriteString(fmt.Sprintf("%-*s", widths[i]+2, cell))
			}
		}
		result.WriteString("\n")
	}
	result.WriteString("```")

	return result.String()
}

// TruncateString pads short strings and cuts long ones to maxLen.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s + strings.Repeat(" ", maxLen-len(s))
	}
	return s[:maxLen-3] + "..."
}

var ShiftHeaders = []string{"DATE", "IN", "OUT", "DURATION", "STATUS", "ADDRESS", "ACTIVITIES"}

// ShiftRow renders one shift in loc. Open shifts show no exit time and the
// time elapsed since clock-in.
func ShiftRow(s *shift.Shift, loc *time.Location, now time.Time) []string {
	in := s.OpenEvent.Timestamp.In(loc)
	out, duration := "-", FormatDuration(s.Elapsed(now))
	if s.CloseEvent != nil {
		out = s.CloseEvent.Timestamp.In(loc).Format(timeLayout)
	} else {
		duration += " (open)"
	}

	return []string{
		in.Format(dateLayout),
		in.Format(timeLayout),
		out,
		duration,
		string(s.Status),
		address(s.OpenEvent.Location),
		activities(s.Activities),
	}
}

// ClosedTotal sums the durations of closed shifts only.
func ClosedTotal(shifts []*shift.Shift) time.Duration {
	var total time.Duration
	for _, s := range shifts {
		if s.Duration != nil {
			total += *s.Duration
		}
	}
	return total
}

func address(loc *models.Location) string {
	if loc == nil {
		return ""
	}
	if loc.Address != nil && *loc.Address != "" {
		return *loc.Address
	}
	if loc.Latitude != nil && loc.Longitude != nil {
		return fmt.Sprintf("%.5f, %.5f", *loc.Latitude, *loc.Longitude)
	}
	return ""
}

func activities(list []*models.Activity) string {
	descs := make([]string, 0, len(list))
	for _, a := range list {
		descs = append(descs, a.Description)
	}
	return strings.Join(descs, "; ")
}
