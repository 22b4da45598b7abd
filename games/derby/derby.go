package derby

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"tadpole-derby/race"
	"tadpole-derby/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Status is the lifecycle phase of one channel's derby.
type Status string

const (
	StatusLobby     Status = "lobby"
	StatusBetting   Status = "betting"
	StatusRunning   Status = "running"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// PlacedBet mirrors a wager for display and for crediting payouts back
// to the right Discord account; the race engine holds the canonical
// wager list keyed by bettor name.
type PlacedBet struct {
	UserID   int64
	UserName string
	RacerID  int
	Amount   int64
}

// Derby is one channel's race: the engine owns all race state, this
// struct owns the Discord plumbing around it.
type Derby struct {
	ChannelID     string
	MessageID     string
	Initiator     int64
	InitiatorName string
	Engine        *race.Engine
	Course        race.PathProvider
	Participants  map[int64]string // userID -> mention
	Bets          []PlacedBet
	Status        Status
	CreatedAt     time.Time
	mu            sync.RWMutex
}

func (d *Derby) status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.Status
}

func (d *Derby) totalStaked() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var total int64
	for _, b := range d.Bets {
		total += b.Amount
	}
	return total
}

// FramePublisher receives live race frames for the overlay feed.
type FramePublisher interface {
	PublishFrame(frame Frame)
}

// Frame is one animation step as seen by overlay clients.
type Frame struct {
	Channel string      `json:"channel"`
	Phase   string      `json:"phase"`
	Racers  []LaneState `json:"racers"`
}

// LaneState is one racer's position within a frame.
type LaneState struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Color    int       `json:"color"`
	Progress float64   `json:"progress"`
	Position int       `json:"position,omitempty"`
	Point    race.Vec3 `json:"point"`
}

// Manager tracks active derbies by channel and expires stale ones. One
// manager exists per bot process.
type Manager struct {
	mu        sync.RWMutex
	byChannel map[string]*Derby
	publisher FramePublisher
	session   *discordgo.Session
	ticker    *time.Ticker
	done      chan bool
}

// Idle lobbies and betting phases are expired after this long.
const phaseTimeout = 5 * time.Minute

// NewManager creates a derby manager. The publisher may be nil when no
// overlay feed is wired up.
func NewManager(publisher FramePublisher) *Manager {
	return &Manager{
		byChannel: make(map[string]*Derby),
		publisher: publisher,
		done:      make(chan bool),
	}
}

// StartCleanup launches the background sweep for stale derbies.
func (m *Manager) StartCleanup(s *discordgo.Session) {
	m.session = s
	m.ticker = time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-m.ticker.C:
				m.sweep()
			case <-m.done:
				return
			}
		}
	}()
}

// Close stops the cleanup sweep.
func (m *Manager) Close() {
	if m.ticker != nil {
		m.ticker.Stop()
		m.done <- true
	}
}

func (m *Manager) get(channelID string) *Derby {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byChannel[channelID]
}

func (m *Manager) remove(channelID string) {
	m.mu.Lock()
	delete(m.byChannel, channelID)
	m.mu.Unlock()
}

// RegisterDerbyCommand describes the /derby slash command.
func RegisterDerbyCommand() *discordgo.ApplicationCommand {
	minTadpoles := float64(race.MinRosterSize)
	return &discordgo.ApplicationCommand{
		Name:        "derby",
		Description: "Start a tadpole derby lobby in this channel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "tadpoles",
				Description: fmt.Sprintf("Number of tadpoles (%d-%d, default %d)", race.MinRosterSize, race.MaxRosterSize, utils.DefaultRosterSize),
				MinValue:    &minTadpoles,
				MaxValue:    float64(race.MaxRosterSize),
				Required:    false,
			},
		},
	}
}

// HandleCommand handles /derby: opens a lobby with a fresh roster.
func (m *Manager) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := utils.DeferInteractionResponse(s, i, false); err != nil {
		return
	}

	chID := i.ChannelID
	userID, _ := utils.ParseUserID(i.Member.User.ID)

	rosterSize := utils.DefaultRosterSize
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "tadpoles" {
			rosterSize = int(opt.IntValue())
		}
	}

	m.mu.Lock()
	if _, exists := m.byChannel[chID]; exists {
		m.mu.Unlock()
		_ = utils.EditOriginalInteraction(s, i, utils.CreateBrandedEmbed("🐸 Derby", "There is already an active derby in this channel.", utils.ErrorColor), nil)
		return
	}
	engine := race.NewEngine()
	if _, err := engine.ConfigureRoster(rosterSize); err != nil {
		m.mu.Unlock()
		_ = utils.EditOriginalInteraction(s, i, utils.CreateBrandedEmbed("🐸 Derby", err.Error(), utils.ErrorColor), nil)
		return
	}
	d := &Derby{
		ChannelID:     chID,
		Initiator:     userID,
		InitiatorName: i.Member.User.Username,
		Engine:        engine,
		Course:        race.GenerateCourse(newCourseRand(), 12),
		Participants:  map[int64]string{userID: i.Member.User.Mention()},
		Status:        StatusLobby,
		CreatedAt:     time.Now(),
	}
	m.byChannel[chID] = d
	m.mu.Unlock()

	_ = utils.EditOriginalInteraction(s, i, lobbyEmbed(d), lobbyComponents(true))
	if orig, err := s.InteractionResponse(i.Interaction); err == nil && orig != nil {
		d.mu.Lock()
		d.MessageID = orig.ID
		d.mu.Unlock()
	}
}

// HandleComponent routes derby button presses.
func (m *Manager) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cid := i.MessageComponentData().CustomID
	d := m.get(i.ChannelID)
	if d == nil {
		_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Derby", "No active derby here.", utils.ErrorColor), nil, true)
		return
	}

	switch cid {
	case "derby_join":
		m.handleJoin(s, i, d)
	case "derby_start_betting":
		m.handleStartBetting(s, i, d)
	case "derby_cancel":
		m.handleCancel(s, i, d)
	case "derby_place_bet":
		m.handleBetPrompt(s, i, d)
	case "derby_lock_start":
		m.handleLockAndStart(s, i, d)
	}
}

func (m *Manager) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate, d *Derby) {
	userID, _ := utils.ParseUserID(i.Member.User.ID)
	d.mu.Lock()
	if d.Status != StatusLobby {
		d.mu.Unlock()
		_ = utils.TryEphemeralFollowup(s, i, "Lobby is closed.")
		return
	}
	if _, exists := d.Participants[userID]; exists {
		d.mu.Unlock()
		_ = utils.TryEphemeralFollowup(s, i, "You have already joined the derby.")
		return
	}
	d.Participants[userID] = i.Member.User.Mention()
	d.mu.Unlock()
	_ = utils.UpdateComponentInteraction(s, i, lobbyEmbed(d), lobbyComponents(true))
}

func (m *Manager) handleStartBetting(s *discordgo.Session, i *discordgo.InteractionCreate, d *Derby) {
	uid, _ := utils.ParseUserID(i.Member.User.ID)
	d.mu.Lock()
	if uid != d.Initiator {
		d.mu.Unlock()
		_ = utils.TryEphemeralFollowup(s, i, "Only the initiator can open betting.")
		return
	}
	d.Status = StatusBetting
	noBets := len(d.Bets) == 0
	d.mu.Unlock()
	_ = utils.UpdateComponentInteraction(s, i, bettingEmbed(d), bettingComponents(noBets))
}

// tryCancel transitions to cancelled, returning the bets to refund.
// Only a derby still in the lobby or betting phase can be cancelled; a
// running race settles, so cancelling it would pay stakes out twice.
func (d *Derby) tryCancel() ([]PlacedBet, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Status != StatusLobby && d.Status != StatusBetting {
		return nil, false
	}
	d.Status = StatusCancelled
	return append([]PlacedBet(nil), d.Bets...), true
}

func (m *Manager) handleCancel(s *discordgo.Session, i *discordgo.InteractionCreate, d *Derby) {
	uid, _ := utils.ParseUserID(i.Member.User.ID)
	d.mu.RLock()
	initiator := d.Initiator
	d.mu.RUnlock()
	if uid != initiator {
		_ = utils.TryEphemeralFollowup(s, i, "Only the initiator can cancel.")
		return
	}
	bets, ok := d.tryCancel()
	if !ok {
		_ = utils.TryEphemeralFollowup(s, i, "The race is already underway and can no longer be cancelled.")
		return
	}

	// Refund stakes debited at bet time.
	for _, b := range bets {
		if _, err := utils.UpdateCachedUser(b.UserID, utils.UserUpdateData{ChipsIncrement: b.Amount}); err != nil {
			utils.Log.Warn("refund failed", zap.Int64("user", b.UserID), zap.Error(err))
			utils.InvalidateUserCache(b.UserID)
		}
	}
	utils.RacesCancelled.Inc()

	_ = utils.UpdateComponentInteraction(s, i, utils.CreateBrandedEmbed("🐸 Derby Cancelled 🐸", "The derby was cancelled by the initiator. All wagers were refunded.", utils.ErrorColor), []discordgo.MessageComponent{})
	m.remove(d.ChannelID)
}

func (m *Manager) handleBetPrompt(s *discordgo.Session, i *discordgo.InteractionCreate, d *Derby) {
	rosterSize := len(d.Engine.Racers())
	modal := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseModal, Data: &discordgo.InteractionResponseData{
		CustomID: "derby_bet_modal_" + d.ChannelID,
		Title:    "Place Your Wager",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: "tadpole_number", Label: fmt.Sprintf("Tadpole Number (1-%d)", rosterSize), Style: discordgo.TextInputShort, Required: true, MinLength: 1, MaxLength: 2, Placeholder: fmt.Sprintf("1-%d", rosterSize)},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: "bet_amount", Label: "Wager Amount", Style: discordgo.TextInputShort, Required: true, MinLength: 1, MaxLength: 10, Placeholder: "e.g., 500"},
			}},
		},
	}}
	_ = s.InteractionRespond(i.Interaction, modal)
}

func (m *Manager) handleLockAndStart(s *discordgo.Session, i *discordgo.InteractionCreate, d *Derby) {
	uid, _ := utils.ParseUserID(i.Member.User.ID)
	d.mu.Lock()
	if uid != d.Initiator {
		d.mu.Unlock()
		_ = utils.TryEphemeralFollowup(s, i, "Only the initiator can start the race.")
		return
	}
	if len(d.Bets) == 0 {
		d.mu.Unlock()
		_ = utils.TryEphemeralFollowup(s, i, "You can't start the race until at least one wager is placed.")
		return
	}
	d.Status = StatusRunning
	d.mu.Unlock()
	_ = utils.UpdateComponentInteraction(s, i, utils.CreateBrandedEmbed("🐸 Wagers are Locked! 🐸", "The wagers are in! The tadpoles are lining up...", utils.BettingColor), []discordgo.MessageComponent{})
	go m.runRace(s, d)
}

// commitWager debits the stake and then records the wager with the
// engine, so the pool can never hold a stake nobody paid. The debit
// comes first; an engine rejection refunds it.
func commitWager(e *race.Engine, userID int64, userName string, racerID int, amount int64) error {
	if _, err := utils.UpdateCachedUser(userID, utils.UserUpdateData{ChipsIncrement: -amount}); err != nil {
		return err
	}
	if err := e.PlaceWager(userName, racerID, float64(amount)); err != nil {
		if _, rerr := utils.UpdateCachedUser(userID, utils.UserUpdateData{ChipsIncrement: amount}); rerr != nil {
			utils.Log.Error("wager refund failed", zap.Int64("user", userID), zap.Error(rerr))
			utils.InvalidateUserCache(userID)
		}
		return err
	}
	return nil
}

// HandleModal processes the wager modal submit.
func (m *Manager) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !strings.HasPrefix(i.ModalSubmitData().CustomID, "derby_bet_modal_") {
		return
	}
	chID := strings.TrimPrefix(i.ModalSubmitData().CustomID, "derby_bet_modal_")
	d := m.get(chID)
	if d == nil {
		_ = utils.TryEphemeralFollowup(s, i, "No active derby.")
		return
	}

	var tadpoleStr, amountStr string
	for _, row := range i.ModalSubmitData().Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			ti, ok := c.(*discordgo.TextInput)
			if !ok {
				continue
			}
			switch ti.CustomID {
			case "tadpole_number":
				tadpoleStr = ti.Value
			case "bet_amount":
				amountStr = ti.Value
			}
		}
	}

	if d.status() != StatusBetting {
		_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Betting Closed", "You can no longer place wagers.", utils.ErrorColor), nil, true)
		return
	}

	userID, _ := utils.ParseUserID(i.Member.User.ID)
	d.mu.RLock()
	_, joined := d.Participants[userID]
	alreadyBet := false
	for _, b := range d.Bets {
		if b.UserID == userID {
			alreadyBet = true
			break
		}
	}
	d.mu.RUnlock()
	if !joined {
		_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Wager Error", "You must join the derby to place a wager.", utils.ErrorColor), nil, true)
		return
	}
	if alreadyBet {
		_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Wager Error", "You have already placed a wager in this derby.", utils.ErrorColor), nil, true)
		return
	}

	tadpoleNum, _ := strconv.Atoi(strings.TrimSpace(tadpoleStr))
	user, err := utils.GetCachedUser(userID)
	if err != nil {
		_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Error", "Failed to load your balance.", utils.ErrorColor), nil, true)
		return
	}
	amount, perr := utils.ParseBet(strings.TrimSpace(amountStr), user.Chips)
	if perr != nil || amount <= 0 {
		_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Wager Error", "Invalid wager amount.", utils.ErrorColor), nil, true)
		return
	}
	if user.Chips < amount {
		_ = utils.SendInteractionResponse(s, i, utils.InsufficientChipsEmbed(amount, user.Chips), nil, true)
		return
	}

	if err := commitWager(d.Engine, userID, i.Member.User.Username, tadpoleNum, amount); err != nil {
		var verr *race.ValidationError
		if errors.As(err, &verr) {
			_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Wager Error", err.Error(), utils.ErrorColor), nil, true)
		} else {
			_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Error", "Failed to place wager.", utils.ErrorColor), nil, true)
		}
		return
	}

	d.mu.Lock()
	d.Bets = append(d.Bets, PlacedBet{UserID: userID, UserName: i.Member.User.Username, RacerID: tadpoleNum, Amount: amount})
	msgID := d.MessageID
	d.mu.Unlock()

	utils.BetsPlaced.Inc()
	utils.ChipsWagered.Add(float64(amount))

	_ = utils.SendInteractionResponse(s, i, utils.CreateBrandedEmbed("Wager Placed!", fmt.Sprintf("You wagered %s %s on Tadpole #%d.", utils.FormatChips(amount), utils.ChipsEmoji, tadpoleNum), utils.BotColor), nil, true)
	if msgID != "" {
		embeds := []*discordgo.MessageEmbed{bettingEmbed(d)}
		comps := []discordgo.MessageComponent{bettingComponents(false)[0]}
		_, _ = s.ChannelMessageEditComplex(&discordgo.MessageEdit{Channel: d.ChannelID, ID: msgID, Embeds: &embeds, Components: &comps})
	}
}
