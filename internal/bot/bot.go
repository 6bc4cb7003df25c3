package bot

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"timeclock/internal/config"
	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/bwmarrin/discordgo"
)

var (
	dmAllowedCommands = map[string]bool{
		"clockin":  true,
		"clockout": true,
		"history":  true,
	}
)

// Directory resolves Discord users to workers.
type Directory interface {
	GetWorkerByDiscordID(ctx context.Context, discordID string) (*models.Worker, error)
	ListWorkers(ctx context.Context) ([]*models.Worker, error)
}

type Bot struct {
	config     config.Discord
	loc        *time.Location
	guard      *shift.Guard
	shifts     *shift.Service
	workers    Directory
	session    *discordgo.Session
	shutdownCh chan struct{}
	isShutdown bool
	mu         sync.Mutex
	wg         sync.WaitGroup
}

func New(cfg config.Discord, loc *time.Location, guard *shift.Guard, shifts *shift.Service, workers Directory) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages

	log.Printf("Discord intents: %d", session.Identify.Intents)

	if loc == nil {
		loc = time.UTC
	}
	return &Bot{
		config:     cfg,
		loc:        loc,
		guard:      guard,
		shifts:     shifts,
		workers:    workers,
		session:    session,
		shutdownCh: make(chan struct{}),
	}, nil
}

func (b *Bot) registerGuildCommands(guildID string) error {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := b.registerGuildCommandsOnce(guildID)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Printf("Command registration attempt %d failed: %v", i+1, err)
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return fmt.Errorf("failed to register commands after %d attempts: %v", maxRetries, lastErr)
}

func (b *Bot) registerGuildCommandsOnce(guildID string) error {
	log.Printf("[%s] Registering commands", guildID)

	existing, err := b.session.ApplicationCommands(b.config.ClientID, guildID)
	if err != nil {
		return fmt.Errorf("error getting existing commands: %w", err)
	}

	// Stale commands from older versions would otherwise linger.
	for _, v := range existing {
		if err := b.session.ApplicationCommandDelete(b.config.ClientID, guildID, v.ID); err != nil {
			log.Printf("[%s] %s: Failed to delete command (%v)", guildID, v.Name, err)
		}
	}

	for _, v := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.config.ClientID, guildID, v); err != nil {
			return fmt.Errorf("error creating command %s: %w", v.Name, err)
		}
		log.Printf("[%s] %s: Registered command", guildID, v.Name)
	}
	return nil
}

// Start connects to Discord and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	log.Println("Starting timeclock bot...")

	for {
		if _, err := b.session.User("@me"); err != nil {
			log.Printf("Discord API unreachable: %v. Retrying in 5s", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}
		break
	}

	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type == discordgo.InteractionApplicationCommand {
			b.handleCommand(s, i)
		}
	})
	b.session.AddHandler(b.handleGuildCreate)

	for {
		if err := b.session.Open(); err != nil {
			log.Printf("Could not open Discord session: %v. Retrying in 5s", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}
		log.Printf("Discord session %s open", b.session.State.SessionID)
		break
	}

	log.Println("Bot is now running.")

	<-ctx.Done()
	return b.Shutdown()
}

// Shutdown waits for in-flight commands, removes the registered commands
// and closes the session.
func (b *Bot) Shutdown() error {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		return nil
	}
	b.isShutdown = true
	close(b.shutdownCh)
	b.mu.Unlock()

	log.Println("Draining in-flight commands")
	b.wg.Wait()

	for _, guild := range b.session.State.Guilds {
		registered, err := b.session.ApplicationCommands(b.config.ClientID, guild.ID)
		if err != nil {
			log.Printf("[%s] Error getting commands: %v", guild.ID, err)
			continue
		}
		for _, cmd := range registered {
			if err := b.session.ApplicationCommandDelete(b.config.ClientID, guild.ID, cmd.ID); err != nil {
				log.Printf("[%s] %s: Failed to remove command (%v)", guild.ID, cmd.Name, err)
			}
		}
	}

	log.Println("Closing Discord session")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("error closing Discord session: %w", err)
	}
	return nil
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("Timeclock bot ready in %d guilds", len(r.Guilds))
}

func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[%s] Joined guild %s", g.ID, g.Name)
	if err := b.registerGuildCommands(g.ID); err != nil {
		log.Printf("[%s] Error registering commands: %v", g.ID, err)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			log.Printf("Panic in command handler for user %s:\nError: %v\nStack Trace:\n%s",
				interactionUsername(i), r, string(buf[:n]))

			respondWithError(s, i, "Something went wrong handling that command")
		}
	}()

	commandName := i.ApplicationCommandData().Name

	if i.GuildID == "" && !dmAllowedCommands[commandName] {
		respondNow(s, i, fmt.Sprintf("Error: The `/%s` command can only be used in a server", commandName))
		return
	}

	// Acknowledge first; storing attachments and building reports can be slow.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[%s] Error acknowledging interaction: %v", i.GuildID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch commandName {
	case "clockin":
		b.handleClockIn(ctx, s, i)
	case "clockout":
		b.handleClockOut(ctx, s, i)
	case "status":
		b.handleStatus(ctx, s, i)
	case "history":
		b.handleHistory(ctx, s, i)
	default:
		log.Printf("[%s] Unknown command: %s", i.GuildID, commandName)
		respondWithError(s, i, "Unknown command")
	}
}

// workerFromInteraction resolves the linked worker or tells the user why
// there is none.
func (b *Bot) workerFromInteraction(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) (*models.Worker, bool) {
	discordID := interactionUserID(i)
	if discordID == "" {
		respondWithError(s, i, "Could not tell who sent this command")
		return nil, false
	}

	worker, err := b.workers.GetWorkerByDiscordID(ctx, discordID)
	if err != nil {
		b.logError(s, "worker lookup", err.Error())
		respondWithError(s, i, "Error looking up your account")
		return nil, false
	}
	if worker == nil {
		respondWithError(s, i, "Your Discord account is not linked to a worker. Ask an administrator to link it.")
		return nil, false
	}
	return worker, true
}
