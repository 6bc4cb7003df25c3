package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/bwmarrin/discordgo"
)

const maxAttachmentBytes = 25 << 20

var errAttachmentTooLarge = errors.New("attachment too large")

// respondNow answers an interaction that has not been acknowledged yet.
func respondNow(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondWithError replaces the deferred acknowledgement with an error.
func respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, errMsg string) {
	editResponse(s, i, "Error: "+errMsg)
}

func respondWithSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	editResponse(s, i, msg)
}

func editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &msg}); err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func interactionUsername(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

// logCommand logs command execution to console and the configured log channel
func (b *Bot) logCommand(s *discordgo.Session, i *discordgo.InteractionCreate, commandName string) {
	var params []string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			params = append(params, fmt.Sprintf("%s:%s", opt.Name, opt.StringValue()))
		}
	}

	msg := fmt.Sprintf("[%s] %s executed /%s", time.Now().Format("2006-01-02 15:04:05"), interactionUsername(i), commandName)
	if len(params) > 0 {
		msg += fmt.Sprintf(" [%s]", strings.Join(params, ", "))
	}

	log.Println(msg)
	b.sendServerLog(s, msg)
}

func (b *Bot) logError(s *discordgo.Session, errContext, errMsg string) {
	msg := fmt.Sprintf("[%s] ERROR - %s: %s", time.Now().Format("2006-01-02 15:04:05"), errContext, errMsg)
	log.Println(msg)
	b.sendServerLog(s, msg)
}

func (b *Bot) sendServerLog(s *discordgo.Session, message string) {
	if b.config.LogChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSend(b.config.LogChannelID, fmt.Sprintf("`%s`", message)); err != nil {
		log.Printf("Error sending log to Discord: %v", err)
	}
}

// fetchAttachment downloads a photo or video attached to the command.
func (b *Bot) fetchAttachment(ctx context.Context, i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) (shift.MediaUpload, error) {
	id, _ := opt.Value.(string)
	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil || resolved.Attachments[id] == nil {
		return shift.MediaUpload{}, fmt.Errorf("attachment %s not resolved", id)
	}
	return downloadAttachment(ctx, b.session.Client, resolved.Attachments[id], maxAttachmentBytes)
}

// downloadAttachment fails rather than keep a partial file when the
// attachment is larger than limit.
func downloadAttachment(ctx context.Context, client *http.Client, att *discordgo.MessageAttachment, limit int64) (shift.MediaUpload, error) {
	if int64(att.Size) > limit {
		return shift.MediaUpload{}, fmt.Errorf("%w: %s is %d bytes", errAttachmentTooLarge, att.Filename, att.Size)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
	if err != nil {
		return shift.MediaUpload{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return shift.MediaUpload{}, fmt.Errorf("error downloading attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return shift.MediaUpload{}, fmt.Errorf("error downloading attachment: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return shift.MediaUpload{}, fmt.Errorf("error reading attachment: %w", err)
	}
	if int64(len(data)) > limit {
		return shift.MediaUpload{}, fmt.Errorf("%w: %s exceeds %d bytes", errAttachmentTooLarge, att.Filename, limit)
	}

	kind := models.MediaPhoto
	if strings.HasPrefix(att.ContentType, "video/") {
		kind = models.MediaVideo
	}
	return shift.MediaUpload{Kind: kind, Data: data, Name: att.Filename}, nil
}
