package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"timeclock/internal/db/models"
	"timeclock/internal/report"
	"timeclock/internal/shift"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects messages over 2000 characters.
const maxHistoryRows = 20

func (b *Bot) handleHistory(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.logCommand(s, i, "history")

	caller, ok := b.workerFromInteraction(ctx, s, i)
	if !ok {
		return
	}

	opts := optionMap(i)
	period := "today"
	if opt, ok := opts["period"]; ok {
		period = opt.StringValue()
	}
	format := "text"
	if opt, ok := opts["format"]; ok {
		format = opt.StringValue()
	}

	r, err := periodRange(period, time.Now(), b.loc)
	if err != nil {
		respondWithError(s, i, err.Error())
		return
	}

	if format == "xlsx" {
		if !caller.IsAdmin() {
			respondWithError(s, i, "XLSX format is only available for administrators")
			return
		}
		b.sendWorkbook(ctx, s, i, r)
		return
	}

	target := caller
	if opt, ok := opts["user"]; ok {
		discordID := opt.UserValue(nil).ID
		if discordID != caller.DiscordIDValue() {
			if !caller.IsAdmin() {
				respondWithError(s, i, "Only administrators can view another worker's history")
				return
			}
			target, err = b.workers.GetWorkerByDiscordID(ctx, discordID)
			if err != nil {
				respondWithError(s, i, "Error looking up worker: "+err.Error())
				return
			}
			if target == nil {
				respondWithError(s, i, "That Discord user is not linked to a worker")
				return
			}
		}
	}

	shifts, err := b.shifts.GetShiftHistory(ctx, target.ID, r)
	if err != nil {
		respondWithError(s, i, "Error retrieving shift history: "+err.Error())
		return
	}

	respondWithSuccess(s, i, historyMessage(target, shifts, r, b.loc, time.Now()))
}

func historyMessage(worker *models.Worker, shifts []*shift.Shift, r shift.DateRange, loc *time.Location, now time.Time) string {
	header := fmt.Sprintf("Shift history for %s (%s)\n", worker.DisplayName(), r)
	if len(shifts) == 0 {
		return header + "No shifts in this period."
	}

	shown := shifts
	if len(shown) > maxHistoryRows {
		shown = shown[:maxHistoryRows]
	}
	rows := make([][]string, 0, len(shown))
	for _, sh := range shown {
		row := report.ShiftRow(sh, loc, now)
		rows = append(rows, row[:4])
	}

	msg := header + report.FormatTable(report.ShiftHeaders[:4], rows)
	if len(shifts) > len(shown) {
		msg += fmt.Sprintf("\n...and %d older shifts", len(shifts)-len(shown))
	}
	msg += fmt.Sprintf("\nTotal worked: %s", report.FormatDuration(report.ClosedTotal(shifts)))
	return msg
}

func (b *Bot) sendWorkbook(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, r shift.DateRange) {
	workers, err := b.workers.ListWorkers(ctx)
	if err != nil {
		respondWithError(s, i, "Error retrieving workers: "+err.Error())
		return
	}

	entries := make([]report.WorkerShifts, 0, len(workers))
	for _, w := range workers {
		shifts, err := b.shifts.GetShiftHistory(ctx, w.ID, r)
		if err != nil {
			respondWithError(s, i, "Error retrieving shift history: "+err.Error())
			return
		}
		entries = append(entries, report.WorkerShifts{Worker: w, Shifts: shifts})
	}

	book, err := report.TeamWorkbook(entries, b.loc, time.Now())
	if err != nil {
		b.logError(s, "build workbook", err.Error())
		respondWithError(s, i, "Error generating workbook")
		return
	}

	msg := fmt.Sprintf("Shift report %s", r)
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &msg,
		Files: []*discordgo.File{{
			Name:        "shifts.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Reader:      bytes.NewReader(book),
		}},
	})
	if err != nil {
		b.logError(s, "send workbook", err.Error())
	}
}

// periodRange turns a /history period choice into calendar days in loc.
func periodRange(period string, now time.Time, loc *time.Location) (shift.DateRange, error) {
	today := now.In(loc)
	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)

	switch period {
	case "today":
		return shift.NewDateRange(today, today)
	case "week":
		return shift.NewDateRange(today.AddDate(0, 0, -6), today)
	case "month":
		return shift.NewDateRange(firstOfMonth, today)
	case "last_month":
		return shift.NewDateRange(firstOfMonth.AddDate(0, -1, 0), firstOfMonth.AddDate(0, 0, -1))
	case "all":
		return shift.AllTime, nil
	}
	return shift.DateRange{}, fmt.Errorf("invalid time period %q", period)
}
