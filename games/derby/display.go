package derby

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"tadpole-derby/race"
	"tadpole-derby/utils"

	"github.com/bwmarrin/discordgo"
)

var commentary = map[string][]string{
	"start": {
		"And they're off!", "A clean launch from every lily pad!", "The pond erupts as the derby begins!",
	},
	"middle": {
		"A blistering pace from the front of the pond!", "Down the back channel they wriggle!",
		"Around the reed bend, it's still anyone's race!", "Someone is surging up the outside lane!",
	},
	"end": {
		"Into the final stretch, the frogs are croaking!", "It's tail to tail as they near the finish!",
		"One tadpole finds a late burst of speed!", "This is going to be a photo finish!",
	},
}

var placementMedals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

func lobbyEmbed(d *Derby) *discordgo.MessageEmbed {
	desc := "**The lobby is open! Click 'Join Derby' to enter!**\n\n"
	desc += "**Tadpoles:**\n"
	for _, r := range d.Engine.Racers() {
		desc += fmt.Sprintf("`%d.` %s **%s**\n", r.ID, utils.TadpoleEmoji, r.Name)
	}
	desc += "\n**Participants:**\n"
	d.mu.RLock()
	if len(d.Participants) == 0 {
		desc += "No one has joined yet."
	} else {
		names := make([]string, 0, len(d.Participants))
		for _, n := range d.Participants {
			names = append(names, n)
		}
		sort.Strings(names)
		desc += strings.Join(names, ", ")
	}
	initiator := d.InitiatorName
	d.mu.RUnlock()

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("🐸 %s's Tadpole Derby 🐸", initiator), desc, utils.BotColor)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Derby initiated by %s", initiator)}
	return embed
}

func bettingEmbed(d *Derby) *discordgo.MessageEmbed {
	desc := "**Place your wagers now!**\n\n**Tadpoles:**\n"
	for _, r := range d.Engine.Racers() {
		desc += fmt.Sprintf("`%d.` %s **%s**\n", r.ID, utils.TadpoleEmoji, r.Name)
	}
	desc += "\n**Wagers Placed:**\n"
	d.mu.RLock()
	if len(d.Bets) == 0 {
		desc += "No wagers placed yet."
	} else {
		for _, b := range d.Bets {
			desc += fmt.Sprintf("• **%s** on Tadpole #%d\n", b.UserName, b.RacerID)
		}
	}
	d.mu.RUnlock()

	embed := utils.CreateBrandedEmbed("🐸 Betting is Open! 🐸", desc, utils.RaceColor)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "The initiator can lock wagers and start the race at any time."}
	return embed
}

func lobbyComponents(enableStart bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton("derby_join", "Join Derby", discordgo.PrimaryButton, false, nil),
			utils.CreateButton("derby_start_betting", "Open Betting", discordgo.SuccessButton, !enableStart, nil),
			utils.CreateButton("derby_cancel", "Cancel Derby", discordgo.DangerButton, false, nil),
		),
	}
}

func bettingComponents(disableStart bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton("derby_place_bet", "Place Wager", discordgo.SuccessButton, false, nil),
			utils.CreateButton("derby_lock_start", "Lock Wagers & Start Race", discordgo.PrimaryButton, disableStart, nil),
		),
	}
}

// laneDisplay renders one row per tadpole in lane order. ASCII only
// inside the code spans so the columns stay aligned.
func laneDisplay(racers []race.Racer) string {
	rows := make([]string, 0, len(racers))
	for _, r := range racers {
		pos := int(r.Progress * float64(utils.LaneLength-1))
		if pos < 0 {
			pos = 0
		}
		if pos > utils.LaneLength-1 {
			pos = utils.LaneLength - 1
		}
		swum := strings.Repeat("~", pos)
		remain := strings.Repeat("-", utils.LaneLength-1-pos)
		marker := ">"
		if r.Finished() {
			marker = "*"
		}
		rows = append(rows, fmt.Sprintf("`%2d.` %s `[%s%s%s]` %s", r.ID, utils.TadpoleEmoji, swum, marker, remain, utils.FinishEmoji))
	}
	return strings.Join(rows, "\n")
}

func raceFrameEmbed(d *Derby, text string) *discordgo.MessageEmbed {
	racers := d.Engine.Racers()
	title := "🐸 The Derby is On! 🐸"
	color := utils.BotColor
	desc := fmt.Sprintf("**%s**\n\n%s", text, laneDisplay(racers))

	// Call the first finisher as soon as one exists.
	for _, r := range racers {
		if r.Position == 1 {
			title = "🏁 First Across the Line! 🏁"
			color = utils.WinnerColor
			desc = fmt.Sprintf("**%s touches the finish first!**\n\n%s", r.Name, laneDisplay(racers))
			break
		}
	}
	return utils.CreateBrandedEmbed(title, desc, color)
}

func resultEmbed(d *Derby, s *race.Settlement, totalPaid int64) *discordgo.MessageEmbed {
	standings := d.Engine.Standings()

	results := "**Final Placements:**\n"
	for _, r := range standings {
		medal, ok := placementMedals[r.Position]
		if !ok {
			continue
		}
		results += fmt.Sprintf("%s **%s** (Tadpole #%d) in %s\n", medal, r.Name, r.ID, r.FinishTime.Round(10*time.Millisecond))
	}

	d.mu.RLock()
	bets := append([]PlacedBet(nil), d.Bets...)
	d.mu.RUnlock()

	if len(bets) > 0 {
		results += "\n**Wager Results:**\n"
		sort.Slice(bets, func(i, j int) bool { return s.Net[bets[i].UserName] > s.Net[bets[j].UserName] })
		for _, b := range bets {
			net := int64(math.Round(s.Net[b.UserName]))
			results += fmt.Sprintf("• **%s**: %s%s %s\n", b.UserName, utils.ProfitPrefix(net), utils.FormatChips(net), utils.ChipsEmoji)
		}
	}

	winner := ""
	for _, r := range standings {
		if r.Position == 1 {
			winner = r.Name
			break
		}
	}

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("🐸 Derby Finished: %s Wins! 🐸", winner), results, utils.WinnerColor)
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Pool: %s chips. Total paid out: %s chips.", utils.FormatChips(int64(s.Pool)), utils.FormatChips(totalPaid)),
	}
	return embed
}
