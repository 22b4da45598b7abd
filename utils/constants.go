package utils

// General Configuration
const (
	BotColor     = 0x2ECC71
	RaceColor    = 0x3498DB
	BettingColor = 0x8E44AD
	WinnerColor  = 0xF1C40F
	ErrorColor   = 0xE74C3C
)

// Economy & XP
const (
	StartingChips = 1000
	XPPerProfit   = 2
	XPPerLevel    = 1000
)

// Derby Defaults
const (
	DefaultRosterSize = 6
	LaneLength        = 24  // characters in the rendered lane
	FrameIntervalMs   = 800 // milliseconds between animation frames
	MaxRaceFrames     = 200 // hard stop for a race that never resolves
)

// UI Messages
const (
	DerbyCleanupMessage = "The derby was closed due to inactivity. Forfeited wagers total %s %s."
)

// Emojis and Discord Elements
const (
	ChipsEmoji   = "🪙"
	TadpoleEmoji = "🐸"
	FinishEmoji  = "🏁"
)
