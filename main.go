package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tadpole-derby/games/derby"
	"tadpole-derby/utils"
	"tadpole-derby/web"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var session *discordgo.Session

func init() {
	// Load environment variables
	if err := godotenv.Load(); err == nil {
		return
	}
	// No .env file is fine; system environment is used instead.
}

func main() {
	logger, err := utils.InitLogger("tadpole-derby")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize database
	if err := utils.SetupDatabase(); err != nil {
		logger.Warn("database setup failed, running without persistence", zap.Error(err))
	} else {
		defer utils.CloseDatabase()
	}

	// Initialize cache with 30 minute TTL
	utils.InitializeCache(30 * time.Minute)
	defer utils.CloseCache()

	// Overlay feed + HTTP sidecar
	hub := web.NewHub()
	go hub.Run()

	manager := derby.NewManager(hub)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := web.NewServer(manager, hub)
	server.Start(port)

	// Get bot token from environment
	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		logger.Fatal("BOT_TOKEN not set in environment variables")
	}

	session, err = discordgo.New("Bot " + token)
	if err != nil {
		logger.Fatal("failed to create Discord session", zap.Error(err))
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages

	// Add event handlers
	session.AddHandler(onReady)
	session.AddHandler(onInteractionCreate(manager))

	if err := session.Open(); err != nil {
		logger.Fatal("failed to open Discord connection", zap.Error(err))
	}
	defer session.Close()

	manager.StartCleanup(session)
	defer manager.Close()

	logger.Info("bot is now running, press CTRL+C to exit")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	logger.Info("gracefully shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("overlay server shutdown failed", zap.Error(err))
	}
	hub.Close()
}

func onReady(s *discordgo.Session, event *discordgo.Ready) {
	utils.Log.Info("Discord bot logged in",
		zap.String("username", event.User.Username),
		zap.String("id", event.User.ID),
	)

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: "Tadpole Derby",
				Type: discordgo.ActivityTypeGame,
			},
		},
		Status: "online",
	}); err != nil {
		utils.Log.Warn("failed to update status", zap.Error(err))
	}

	if err := registerSlashCommands(s); err != nil {
		utils.Log.Error("failed to register slash commands", zap.Error(err))
	}
}

func registerSlashCommands(s *discordgo.Session) error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check bot latency and status",
		},
		{
			Name:        "balance",
			Description: "Check your current chip balance",
		},
		{
			Name:        "profile",
			Description: "View your derby profile and stats",
		},
		derby.RegisterDerbyCommand(),
	}

	for _, command := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", command); err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}

	utils.Log.Info("registered slash commands", zap.Int("count", len(commands)))
	return nil
}

func onInteractionCreate(manager *derby.Manager) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			switch i.ApplicationCommandData().Name {
			case "ping":
				handlePingCommand(s, i)
			case "balance":
				handleBalanceCommand(s, i)
			case "profile":
				handleProfileCommand(s, i)
			case "derby":
				manager.HandleCommand(s, i)
			}
		case discordgo.InteractionMessageComponent:
			if strings.HasPrefix(i.MessageComponentData().CustomID, "derby_") {
				manager.HandleComponent(s, i)
			}
		case discordgo.InteractionModalSubmit:
			manager.HandleModal(s, i)
		}
	}
}

func handlePingCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	latency := s.HeartbeatLatency()

	embed := utils.CreateBrandedEmbed("🏓 Pong!", "", utils.BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:   "Latency",
			Value:  fmt.Sprintf("%dms", latency.Milliseconds()),
			Inline: true,
		},
		{
			Name:   "Status",
			Value:  "✅ Online",
			Inline: true,
		},
	}

	_ = utils.SendInteractionResponse(s, i, embed, nil, false)
}

func handleBalanceCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, _ := utils.ParseUserID(i.Member.User.ID)
	username := i.Member.User.Username

	user, err := utils.GetCachedUser(userID)
	if err != nil {
		_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Error", "Error accessing user data. Database may be unavailable.", utils.ErrorColor), nil, true)
		return
	}

	embed := utils.CreateBrandedEmbed(
		fmt.Sprintf("💰 %s's Balance", username),
		fmt.Sprintf("You currently have **%s** %s chips", utils.FormatChips(user.Chips), utils.ChipsEmoji),
		utils.BotColor,
	)
	_ = utils.SendInteractionResponse(s, i, embed, nil, false)
}

func handleProfileCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, _ := utils.ParseUserID(i.Member.User.ID)
	username := i.Member.User.Username

	user, err := utils.GetCachedUser(userID)
	if err != nil {
		_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Error", "Error accessing user data. Database may be unavailable.", utils.ErrorColor), nil, true)
		return
	}

	totalRaces := user.Wins + user.Losses
	winRate := 0.0
	if totalRaces > 0 {
		winRate = float64(user.Wins) / float64(totalRaces) * 100
	}
	level := user.TotalXP/utils.XPPerLevel + 1
	intoLevel := user.TotalXP % utils.XPPerLevel

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("🐸 %s's Derby Profile", username), "", utils.BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:   "💰 Chips",
			Value:  fmt.Sprintf("%s %s", utils.FormatChips(user.Chips), utils.ChipsEmoji),
			Inline: true,
		},
		{
			Name:   "⭐ Total XP",
			Value:  utils.FormatNumber(user.TotalXP),
			Inline: true,
		},
		{
			Name:   "🎯 Derbies Won",
			Value:  fmt.Sprintf("%d", user.Wins),
			Inline: true,
		},
		{
			Name:   "💔 Derbies Lost",
			Value:  fmt.Sprintf("%d", user.Losses),
			Inline: true,
		},
		{
			Name:   "📊 Win Rate",
			Value:  fmt.Sprintf("%.1f%%", winRate),
			Inline: true,
		},
		{
			Name:   fmt.Sprintf("📈 Level %d", level),
			Value:  fmt.Sprintf("`%s` %s/%d XP", utils.CreateProgressBar(intoLevel, 0, utils.XPPerLevel, 12), utils.FormatNumber(intoLevel), utils.XPPerLevel),
			Inline: false,
		},
	}

	_ = utils.SendInteractionResponse(s, i, embed, nil, false)
}
