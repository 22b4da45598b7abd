package derby

import (
	"strings"
	"testing"

	"tadpole-derby/race"
	"tadpole-derby/utils"
)

func TestLaneDisplayWidthIsStable(t *testing.T) {
	racers := []race.Racer{
		{ID: 1, Name: "Polly Wog", Progress: 0},
		{ID: 2, Name: "Mudskipper", Progress: 0.5},
		{ID: 3, Name: "Ripple", Progress: 1, Position: 1},
	}

	rows := strings.Split(laneDisplay(racers), "\n")
	if len(rows) != 3 {
		t.Fatalf("expected 3 lanes, got %d", len(rows))
	}

	// Every lane's bracketed track section must render at the same
	// width regardless of progress, or the animation jitters.
	width := -1
	for _, row := range rows {
		open := strings.Index(row, "[")
		end := strings.Index(row, "]")
		if open < 0 || end < 0 {
			t.Fatalf("lane missing track brackets: %q", row)
		}
		if width == -1 {
			width = end - open
		} else if end-open != width {
			t.Errorf("uneven lane width: %q", row)
		}
	}
}

func TestLaneDisplayMarksFinishers(t *testing.T) {
	racers := []race.Racer{
		{ID: 1, Name: "Ripple", Progress: 1, Position: 1},
		{ID: 2, Name: "Bubbles", Progress: 0.3},
	}
	rows := strings.Split(laneDisplay(racers), "\n")
	if !strings.Contains(rows[0], strings.Repeat("~", utils.LaneLength-1)+"*") {
		t.Errorf("finished lane should be fully swum with a finish marker: %q", rows[0])
	}
	if !strings.Contains(rows[1], ">") {
		t.Errorf("swimming lane should carry the swim marker: %q", rows[1])
	}
}

func TestSnapshotReportsPoolAndStandings(t *testing.T) {
	m := NewManager(nil)
	engine := race.NewEngine()
	if _, err := engine.ConfigureRoster(3); err != nil {
		t.Fatalf("ConfigureRoster failed: %v", err)
	}
	d := &Derby{
		ChannelID:     "c1",
		InitiatorName: "alice",
		Engine:        engine,
		Course:        race.GenerateCourse(newCourseRand(), 6),
		Status:        StatusBetting,
		Bets: []PlacedBet{
			{UserID: 1, UserName: "alice", RacerID: 1, Amount: 100},
			{UserID: 2, UserName: "bob", RacerID: 2, Amount: 50},
		},
	}
	m.byChannel["c1"] = d

	snaps := m.Snapshot()
	if len(snaps) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(snaps))
	}
	if snaps[0].Pool != 150 {
		t.Errorf("expected pool 150, got %d", snaps[0].Pool)
	}
	if len(snaps[0].Standings) != 3 {
		t.Errorf("expected 3 standings rows, got %d", len(snaps[0].Standings))
	}
	if got := len(m.Courses()["c1"]); got != 64 {
		t.Errorf("expected 64 course samples, got %d", got)
	}
}
