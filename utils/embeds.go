package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// CreateBrandedEmbed creates a basic embed with bot branding.
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Tadpole Derby",
		},
	}
}

// InsufficientChipsEmbed creates an embed for a bet the user can't cover.
func InsufficientChipsEmbed(requiredChips, currentBalance int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"Not Enough Chips",
		fmt.Sprintf("You don't have enough chips for that wager.\n**Your balance:** %s %s\n**Required:** %s %s",
			FormatChips(currentBalance), ChipsEmoji,
			FormatChips(requiredChips), ChipsEmoji),
		ErrorColor,
	)
}

// DerbyCleanupEmbed creates an embed shown when an idle derby is closed.
func DerbyCleanupEmbed(forfeited int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"🧹 Derby Closed",
		fmt.Sprintf(DerbyCleanupMessage, FormatChips(forfeited), ChipsEmoji),
		0xF39C12,
	)
}

// Helper functions
func FormatChips(amount int64) string {
	return FormatNumber(amount)
}

func FormatNumber(num int64) string {
	str := strconv.FormatInt(num, 10)
	if len(str) <= 3 {
		return str
	}

	// Add commas for thousands
	var result strings.Builder
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ProfitPrefix returns "+" for positive amounts so results read like
// ledger lines.
func ProfitPrefix(profit int64) string {
	if profit > 0 {
		return "+"
	}
	return ""
}

// CreateProgressBar renders a fixed-width unicode bar for a value
// within [min, max].
func CreateProgressBar(current, min, max int64, length int) string {
	if max <= min {
		return strings.Repeat("█", length)
	}

	progress := float64(current-min) / float64(max-min)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}
