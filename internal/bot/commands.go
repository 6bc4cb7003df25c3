package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"timeclock/internal/db/models"
	"timeclock/internal/report"
	"timeclock/internal/shift"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

var (
	commands = []*discordgo.ApplicationCommand{
		{
			Name:        "clockin",
			Description: "Start your shift",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "note",
					Description: "What you are about to work on",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "address",
					Description: "Where you are working from",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "photo",
					Description: "Entry photo",
					Required:    false,
				},
			},
		},
		{
			Name:        "clockout",
			Description: "End your current shift",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "activity",
					Description: "What you did during this shift",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "photo",
					Description: "Exit photo",
					Required:    false,
				},
			},
		},
		{
			Name:        "status",
			Description: "Show who is currently on shift",
		},
		{
			Name:        "history",
			Description: "Show shift history",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "Time period",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Today", Value: "today"},
						{Name: "This Week", Value: "week"},
						{Name: "This Month", Value: "month"},
						{Name: "Last Month", Value: "last_month"},
						{Name: "All Time", Value: "all"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Show another worker's history (admins only)",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "format",
					Description: "Output format (XLSX available for admins only)",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Text", Value: "text"},
						{Name: "XLSX", Value: "xlsx"},
					},
				},
			},
		},
	}
)

func (b *Bot) handleClockIn(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.logCommand(s, i, "clockin")
	b.clock(ctx, s, i, models.KindIn, "note")
}

func (b *Bot) handleClockOut(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.logCommand(s, i, "clockout")
	b.clock(ctx, s, i, models.KindOut, "activity")
}

func (b *Bot) clock(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, kind models.Kind, noteOption string) {
	worker, ok := b.workerFromInteraction(ctx, s, i)
	if !ok {
		return
	}

	opts := optionMap(i)
	var payload shift.Payload
	if opt, ok := opts[noteOption]; ok {
		payload.Activities = []string{opt.StringValue()}
	}
	if opt, ok := opts["address"]; ok {
		addr := opt.StringValue()
		payload.Location = &models.Location{Address: &addr}
	}
	if opt, ok := opts["photo"]; ok {
		upload, err := b.fetchAttachment(ctx, i, opt)
		if err != nil {
			b.logError(s, "fetch attachment", err.Error())
		} else {
			payload.Media = append(payload.Media, upload)
		}
	}

	event, err := b.guard.Submit(ctx, worker.ID, kind, payload)
	if err != nil {
		if msg, ok := rejectionMessage(err); ok {
			respondWithError(s, i, msg)
			return
		}
		b.logError(s, "clock "+string(kind), err.Error())
		respondWithError(s, i, "Could not record your clock action, please try again")
		return
	}

	at := event.Timestamp.In(b.loc).Format("2006-01-02 15:04")
	if kind == models.KindIn {
		respondWithSuccess(s, i, fmt.Sprintf("Clocked in at %s. Have a good shift!", at))
		return
	}

	msg := fmt.Sprintf("Clocked out at %s.", at)
	if event.LinkedOpenEventID != nil {
		if sh, err := b.shifts.GetShift(ctx, worker.ID, *event.LinkedOpenEventID); err == nil && sh.Duration != nil {
			msg += " Shift length: " + report.FormatDuration(*sh.Duration)
		}
	}
	respondWithSuccess(s, i, msg)
}

func rejectionMessage(err error) (string, bool) {
	rej, ok := shift.AsRejection(err)
	if !ok {
		return "", false
	}
	switch rej.Reason {
	case shift.ReasonAlreadyClockedIn:
		return "You are already clocked in. Use /clockout to end your current shift first.", true
	case shift.ReasonNotClockedIn:
		return "You are not clocked in.", true
	}
	return string(rej.Reason), true
}

// handleStatus lists every linked worker, on shift first.
func (b *Bot) handleStatus(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.logCommand(s, i, "status")

	open, err := b.shifts.GetAllCurrentlyOpenShifts(ctx)
	if err != nil {
		respondWithError(s, i, "Error retrieving open shifts: "+err.Error())
		return
	}
	workers, err := b.workers.ListWorkers(ctx)
	if err != nil {
		respondWithError(s, i, "Error retrieving workers: "+err.Error())
		return
	}

	respondWithSuccess(s, i, "```\n"+statusBoard(open, workers, b.loc, time.Now())+"```")
}

func statusBoard(open []*shift.Shift, workers []*models.Worker, loc *time.Location, now time.Time) string {
	byID := make(map[uuid.UUID]*models.Worker, len(workers))
	for _, w := range workers {
		byID[w.ID] = w
	}

	var out strings.Builder
	out.WriteString("Current Status\n\n")
	out.WriteString(fmt.Sprintf("%-20s %-18s %-15s\n", "WORKER", "SINCE", "TIME"))
	out.WriteString(strings.Repeat("-", 55) + "\n")

	onShift := make(map[uuid.UUID]bool)
	for _, sh := range open {
		w := byID[sh.WorkerID]
		if w == nil {
			continue
		}
		onShift[w.ID] = true
		out.WriteString(fmt.Sprintf("● %-18s %-18s %-15s\n",
			report.TruncateString(w.DisplayName(), 18),
			sh.OpenEvent.Timestamp.In(loc).Format("2006-01-02 15:04"),
			report.FormatDuration(sh.Elapsed(now)),
		))
	}

	for _, w := range workers {
		if !onShift[w.ID] {
			out.WriteString(fmt.Sprintf("○ %-18s %-18s %-15s\n",
				report.TruncateString(w.DisplayName(), 18),
				"Not clocked in",
				"-",
			))
		}
	}
	return out.String()
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		opts[opt.Name] = opt
	}
	return opts
}
