package race

// Prize splits for the top three placements. Positions beyond third
// receive nothing.
var prizeSplits = []float64{0.60, 0.30, 0.10}

// Settlement is the outcome of one race's betting pool. Net maps every
// bettor to payouts received minus everything they staked; Paid holds
// gross payouts only, which is what display layers credit back since
// stakes are debited when a bet is placed.
type Settlement struct {
	Pool float64
	Paid map[string]float64
	Net  map[string]float64
}

// settle distributes the pool across the top-three placements, each
// position's share split proportionally among its bettors. With fewer
// racers than prize positions the pool is withheld entirely and every
// bettor simply loses their stake.
func settle(racers []*Racer, wagers map[int][]Wager) *Settlement {
	s := &Settlement{
		Paid: make(map[string]float64),
		Net:  make(map[string]float64),
	}
	for _, ws := range wagers {
		for _, w := range ws {
			s.Pool += w.Amount
			s.Net[w.Bettor] -= w.Amount
		}
	}
	if len(racers) < len(prizeSplits) {
		return s
	}

	byPosition := make(map[int]*Racer, len(racers))
	for _, r := range racers {
		if r.Position > 0 {
			byPosition[r.Position] = r
		}
	}

	for i, split := range prizeSplits {
		r, ok := byPosition[i+1]
		if !ok {
			continue
		}
		ws := wagers[r.ID]
		var staked float64
		for _, w := range ws {
			staked += w.Amount
		}
		if staked <= 0 {
			continue
		}
		share := s.Pool * split
		for _, w := range ws {
			payout := share * (w.Amount / staked)
			s.Paid[w.Bettor] += payout
			s.Net[w.Bettor] += payout
		}
	}
	return s
}
