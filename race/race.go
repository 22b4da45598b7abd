// Package race implements the tadpole derby core: per-tick progress
// advancement along a normalized course, finish-order assignment, and
// proportional prize-pool settlement. It has no Discord or rendering
// dependencies; presentation layers drive it through Tick and read it
// through Standings.
package race

import (
	"math/rand"
	"time"
)

// Roster size limits.
const (
	MinRosterSize = 2
	MaxRosterSize = 8
)

var tadpoleNames = []string{
	"Sir Wiggleton", "Polly Wog", "Mudskipper", "Bubbles McGee", "Pond Lord",
	"Lil' Squirmy", "Tad Cruise", "Swamp Rocket", "Algae Al", "Duckweed Dan",
	"Ripple", "Gill Gates", "Froggy Prospect", "Splashdown", "Newt Candidate",
	"Wet Willie", "Puddle Jumper", "Lily Padfoot", "Croaks-a-Lot", "Spawn Again",
}

// Lane colors cycled across the roster, used by display layers.
var tadpoleColors = []int{
	0x2ECC71, 0x3498DB, 0xE67E22, 0x9B59B6, 0xE74C3C, 0xF1C40F, 0x1ABC9C, 0xE91E63,
}

// Racer is one simulated competitor. Progress runs 0 (start) to 1
// (finish) and never decreases while a race is active. Position and
// FinishTime stay zero until the racer crosses the line and are then
// write-once for the session.
type Racer struct {
	ID         int
	Name       string
	Color      int
	Progress   float64
	Position   int
	FinishTime time.Duration
}

// Finished reports whether the racer has crossed the line this session.
func (r *Racer) Finished() bool { return r.Position > 0 }

// Wager is a single bettor's stake on one racer.
type Wager struct {
	Bettor  string
	RacerID int
	Amount  float64
}

// PaceFunc picks a racer's speed (progress units per second) for the
// next tick, given its current speed. A zero current speed means the
// racer has not been assigned a pace yet.
type PaceFunc func(rng *rand.Rand, current float64) float64

// Default pace band. Rerolling with small probability each tick gives
// the organic surging/fading the animation relies on.
const (
	paceMin          = 0.06
	paceMax          = 0.18
	paceRerollChance = 0.15
)

// DefaultPace keeps a racer's speed inside the fixed band, rerolling it
// with a small probability each tick.
func DefaultPace(rng *rand.Rand, current float64) float64 {
	if current == 0 || rng.Float64() < paceRerollChance {
		return paceMin + rng.Float64()*(paceMax-paceMin)
	}
	return current
}

func pickRoster(rng *rand.Rand, n int) []*Racer {
	idx := rng.Perm(len(tadpoleNames))[:n]
	racers := make([]*Racer, 0, n)
	for i, j := range idx {
		racers = append(racers, &Racer{
			ID:    i + 1,
			Name:  tadpoleNames[j],
			Color: tadpoleColors[i%len(tadpoleColors)],
		})
	}
	return racers
}
