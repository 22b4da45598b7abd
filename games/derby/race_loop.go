package derby

import (
	"math"
	"math/rand"
	"time"

	"tadpole-derby/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func newCourseRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// runRace drives the animation loop: every frame ticks each tadpole,
// re-renders the track embed, and publishes a frame to the overlay
// feed. The engine decides when the race is over.
func (m *Manager) runRace(s *discordgo.Session, d *Derby) {
	if err := d.Engine.Start(); err != nil {
		utils.Log.Error("race start failed", zap.String("channel", d.ChannelID), zap.Error(err))
		m.remove(d.ChannelID)
		return
	}
	utils.RacesStarted.Inc()
	raceStart := time.Now()

	rng := newCourseRand()
	startText := commentary["start"][rng.Intn(len(commentary["start"]))]
	middleText := commentary["middle"][rng.Intn(len(commentary["middle"]))]
	endText := commentary["end"][rng.Intn(len(commentary["end"]))]

	lastFrame := time.Now()
	phase := "start"
	for frame := 0; !d.Engine.Done() && frame < utils.MaxRaceFrames; frame++ {
		time.Sleep(utils.FrameIntervalMs * time.Millisecond)
		now := time.Now()
		elapsed := now.Sub(lastFrame)
		lastFrame = now

		for _, r := range d.Engine.Racers() {
			if err := d.Engine.Tick(r.ID, elapsed); err != nil {
				utils.Log.Error("tick failed", zap.Int("racer", r.ID), zap.Error(err))
			}
		}

		if phase == "start" {
			phase = "middle"
		} else if phase == "middle" {
			for _, r := range d.Engine.Racers() {
				if r.Progress >= 0.75 {
					phase = "end"
					break
				}
			}
		}
		var text string
		switch phase {
		case "start":
			text = startText
		case "end":
			text = endText
		default:
			text = middleText
		}

		m.publish(d, phase)

		d.mu.RLock()
		msgID := d.MessageID
		d.mu.RUnlock()
		if msgID != "" {
			embeds := []*discordgo.MessageEmbed{raceFrameEmbed(d, text)}
			_, _ = s.ChannelMessageEditComplex(&discordgo.MessageEdit{Channel: d.ChannelID, ID: msgID, Embeds: &embeds})
		}
	}

	// If the frame budget ran out, finish the stragglers off-screen.
	// Pace speeds have a positive floor, so this terminates.
	for i := 0; !d.Engine.Done() && i < 1000; i++ {
		for _, r := range d.Engine.Racers() {
			_ = d.Engine.Tick(r.ID, time.Second)
		}
	}

	m.finishRace(s, d, time.Since(raceStart))
}

// publish sends the current standings to the overlay feed.
func (m *Manager) publish(d *Derby, phase string) {
	if m.publisher == nil {
		return
	}
	racers := d.Engine.Racers()
	lanes := make([]LaneState, 0, len(racers))
	for _, r := range racers {
		lanes = append(lanes, LaneState{
			ID:       r.ID,
			Name:     r.Name,
			Color:    r.Color,
			Progress: r.Progress,
			Position: r.Position,
			Point:    d.Course.PointAt(r.Progress),
		})
	}
	m.publisher.PublishFrame(Frame{Channel: d.ChannelID, Phase: phase, Racers: lanes})
}

// finishRace settles the pool, credits winners, and posts the results.
func (m *Manager) finishRace(s *discordgo.Session, d *Derby, duration time.Duration) {
	d.mu.Lock()
	d.Status = StatusFinished
	bets := append([]PlacedBet(nil), d.Bets...)
	msgID := d.MessageID
	d.mu.Unlock()

	settlement, err := d.Engine.Settle()
	if err != nil {
		utils.Log.Error("settlement failed", zap.String("channel", d.ChannelID), zap.Error(err))
		m.remove(d.ChannelID)
		return
	}

	utils.RacesFinished.Inc()
	utils.RaceDuration.Observe(duration.Seconds())
	m.publish(d, "finished")

	// Credit gross payouts; stakes were debited when bets were placed.
	userByName := make(map[string]int64, len(bets))
	for _, b := range bets {
		userByName[b.UserName] = b.UserID
	}
	var totalPaid int64
	for name, paid := range settlement.Paid {
		userID, ok := userByName[name]
		if !ok {
			continue
		}
		credit := int64(math.Round(paid))
		totalPaid += credit
		net := int64(math.Round(settlement.Net[name]))
		update := utils.UserUpdateData{ChipsIncrement: credit}
		if net > 0 {
			update.TotalXPIncrement = net * utils.XPPerProfit
			update.WinsIncrement = 1
		}
		if _, err := utils.UpdateCachedUser(userID, update); err != nil {
			utils.Log.Error("payout credit failed", zap.Int64("user", userID), zap.Error(err))
			utils.InvalidateUserCache(userID)
		}
	}
	utils.ChipsPaidOut.Add(float64(totalPaid))

	// Everyone whose net came out negative records a loss.
	for name, userID := range userByName {
		if settlement.Net[name] < 0 {
			if _, err := utils.UpdateCachedUser(userID, utils.UserUpdateData{LossesIncrement: 1}); err != nil {
				utils.Log.Warn("loss record failed", zap.Int64("user", userID), zap.Error(err))
			}
		}
	}

	if msgID != "" {
		embeds := []*discordgo.MessageEmbed{resultEmbed(d, settlement, totalPaid)}
		comps := []discordgo.MessageComponent{}
		_, _ = s.ChannelMessageEditComplex(&discordgo.MessageEdit{Channel: d.ChannelID, ID: msgID, Embeds: &embeds, Components: &comps})
	}

	utils.Log.Info("race finished",
		zap.String("channel", d.ChannelID),
		zap.Duration("duration", duration),
		zap.Float64("pool", settlement.Pool),
		zap.Int64("paid", totalPaid),
	)
	m.remove(d.ChannelID)
}

// sweep expires derbies stuck in the lobby or betting phase. A betting
// phase with wagers auto-starts instead of forfeiting them.
func (m *Manager) sweep() {
	m.mu.RLock()
	stale := make([]*Derby, 0)
	for _, d := range m.byChannel {
		if time.Since(d.CreatedAt) < phaseTimeout {
			continue
		}
		switch d.status() {
		case StatusLobby, StatusBetting:
			stale = append(stale, d)
		}
	}
	m.mu.RUnlock()

	for _, d := range stale {
		d.mu.Lock()
		autoStart := d.Status == StatusBetting && len(d.Bets) > 0
		msgID := d.MessageID
		if autoStart {
			d.Status = StatusRunning
		}
		d.mu.Unlock()

		if autoStart {
			if m.session != nil && msgID != "" {
				embeds := []*discordgo.MessageEmbed{utils.CreateBrandedEmbed("🐸 Wagers are Locked! 🐸", "The wagers are in! The tadpoles are lining up...", utils.BettingColor)}
				comps := []discordgo.MessageComponent{}
				_, _ = m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{Channel: d.ChannelID, ID: msgID, Embeds: &embeds, Components: &comps})
			}
			go m.runRace(m.session, d)
			continue
		}

		// The derby may have started between the stale scan and here;
		// only a lobby or betting phase forfeits.
		if _, ok := d.tryCancel(); !ok {
			continue
		}

		utils.RacesCancelled.Inc()
		m.remove(d.ChannelID)
		if m.session != nil && msgID != "" {
			embeds := []*discordgo.MessageEmbed{utils.DerbyCleanupEmbed(d.totalStaked())}
			comps := []discordgo.MessageComponent{}
			_, _ = m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{Channel: d.ChannelID, ID: msgID, Embeds: &embeds, Components: &comps})
		}
	}
}
