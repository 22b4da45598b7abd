package derby

import "tadpole-derby/race"

// RaceSummary is the read-only view of one derby served by the overlay
// HTTP API.
type RaceSummary struct {
	Channel   string       `json:"channel"`
	Status    string       `json:"status"`
	Initiator string       `json:"initiator"`
	Pool      int64        `json:"pool"`
	Standings []race.Racer `json:"standings"`
}

// Snapshot returns summaries of every active derby.
func (m *Manager) Snapshot() []RaceSummary {
	m.mu.RLock()
	derbies := make([]*Derby, 0, len(m.byChannel))
	for _, d := range m.byChannel {
		derbies = append(derbies, d)
	}
	m.mu.RUnlock()

	out := make([]RaceSummary, 0, len(derbies))
	for _, d := range derbies {
		d.mu.RLock()
		summary := RaceSummary{
			Channel:   d.ChannelID,
			Status:    string(d.Status),
			Initiator: d.InitiatorName,
		}
		for _, b := range d.Bets {
			summary.Pool += b.Amount
		}
		d.mu.RUnlock()
		summary.Standings = d.Engine.Standings()
		out = append(out, summary)
	}
	return out
}

// Courses returns sampled course geometry per channel so overlays can
// draw the track tube.
func (m *Manager) Courses() map[string][]race.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]race.Vec3, len(m.byChannel))
	for ch, d := range m.byChannel {
		out[ch] = d.Course.Samples(64)
	}
	return out
}
