package race

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

// constantPace removes randomness so tests control exactly how far a
// racer moves per tick.
func constantPace(speed float64) PaceFunc {
	return func(_ *rand.Rand, _ float64) float64 { return speed }
}

func newTestEngine(t *testing.T, n int, pace PaceFunc) *Engine {
	t.Helper()
	e := NewEngine(WithRand(rand.New(rand.NewSource(1))), WithPace(pace))
	if _, err := e.ConfigureRoster(n); err != nil {
		t.Fatalf("ConfigureRoster(%d) failed: %v", n, err)
	}
	return e
}

// finishInOrder drives the race so racers cross the line in the given
// id order.
func finishInOrder(t *testing.T, e *Engine, order []int) {
	t.Helper()
	for _, id := range order {
		for i := 0; i < 50; i++ {
			if err := e.Tick(id, time.Second); err != nil {
				t.Fatalf("Tick(%d) failed: %v", id, err)
			}
		}
	}
}

func TestProgressMonotonicAndClamped(t *testing.T) {
	e := newTestEngine(t, 3, constantPace(0.3))
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	last := 0.0
	for i := 0; i < 10; i++ {
		if err := e.Tick(1, 500*time.Millisecond); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		p := e.Racers()[0].Progress
		if p < last {
			t.Errorf("progress decreased: %f -> %f", last, p)
		}
		if p > 1.0 {
			t.Errorf("progress exceeded 1.0: %f", p)
		}
		last = p
	}
	if last != 1.0 {
		t.Errorf("expected racer to be clamped at 1.0, got %f", last)
	}
}

func TestFinishPositionsArePermutationInArrivalOrder(t *testing.T) {
	e := newTestEngine(t, 4, constantPace(0.5))
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	order := []int{3, 1, 4, 2}
	finishInOrder(t, e, order)

	byID := make(map[int]Racer)
	for _, r := range e.Racers() {
		byID[r.ID] = r
	}
	for want, id := range order {
		if got := byID[id].Position; got != want+1 {
			t.Errorf("racer %d: expected position %d, got %d", id, want+1, got)
		}
	}

	seen := make(map[int]bool)
	for _, r := range e.Racers() {
		if r.Position < 1 || r.Position > 4 {
			t.Errorf("position %d out of range 1..4", r.Position)
		}
		if seen[r.Position] {
			t.Errorf("duplicate position %d", r.Position)
		}
		seen[r.Position] = true
	}

	if e.Running() {
		t.Error("expected clock to stop after the last finish")
	}
	if !e.Done() {
		t.Error("expected session to be done after the last finish")
	}
}

func TestFinishTimesNondecreasingInArrivalOrder(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	e := NewEngine(WithRand(rand.New(rand.NewSource(1))), WithPace(constantPace(0.5)), WithClock(clock))
	if _, err := e.ConfigureRoster(3); err != nil {
		t.Fatalf("ConfigureRoster failed: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for _, id := range []int{2, 3, 1} {
		now = now.Add(time.Second)
		for i := 0; i < 10; i++ {
			if err := e.Tick(id, time.Second); err != nil {
				t.Fatalf("Tick failed: %v", err)
			}
		}
	}

	standings := e.Standings()
	for i := 1; i < len(standings); i++ {
		if standings[i].FinishTime < standings[i-1].FinishTime {
			t.Errorf("finish times out of order: position %d at %v before position %d at %v",
				standings[i].Position, standings[i].FinishTime, standings[i-1].Position, standings[i-1].FinishTime)
		}
	}
}

func TestRegisterFinishIdempotent(t *testing.T) {
	e := newTestEngine(t, 3, constantPace(0.5))
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := e.Tick(1, time.Second); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
	}
	first := e.Racers()[0]
	if first.Position != 1 {
		t.Fatalf("expected position 1, got %d", first.Position)
	}

	// Further ticks past the line must change nothing.
	for i := 0; i < 5; i++ {
		if err := e.Tick(1, time.Second); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
	}
	again := e.Racers()[0]
	if again.Position != first.Position || again.FinishTime != first.FinishTime {
		t.Errorf("finish record changed after re-registration: %+v vs %+v", again, first)
	}
}

func TestSettleBeforeFinishFails(t *testing.T) {
	e := newTestEngine(t, 3, constantPace(0.5))
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := e.PlaceWager("alice", 1, 100); err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}

	before := e.Standings()
	if _, err := e.Settle(); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("expected ErrNotFinished, got %v", err)
	}
	after := e.Standings()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("settle attempt mutated standings: %+v vs %+v", before[i], after[i])
		}
	}
	if len(e.Wagers()[1]) != 1 {
		t.Error("settle attempt mutated wagers")
	}
}

func TestConfigureRosterRejectedWhileRunning(t *testing.T) {
	e := newTestEngine(t, 4, constantPace(0.1))
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	before := e.Racers()
	if _, err := e.ConfigureRoster(6); !errors.Is(err, ErrRaceActive) {
		t.Fatalf("expected ErrRaceActive, got %v", err)
	}
	after := e.Racers()
	if len(after) != len(before) {
		t.Fatalf("roster size changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("roster mutated: %+v vs %+v", before[i], after[i])
		}
	}
	if !e.Running() {
		t.Error("race should still be running")
	}
}

func TestConfigureRosterBounds(t *testing.T) {
	e := NewEngine(WithRand(rand.New(rand.NewSource(1))))
	for _, n := range []int{-1, 0, 1, 9, 50} {
		var verr *ValidationError
		if _, err := e.ConfigureRoster(n); !errors.As(err, &verr) {
			t.Errorf("ConfigureRoster(%d): expected ValidationError, got %v", n, err)
		}
	}
	for _, n := range []int{2, 6, 8} {
		racers, err := e.ConfigureRoster(n)
		if err != nil {
			t.Errorf("ConfigureRoster(%d) failed: %v", n, err)
		}
		if len(racers) != n {
			t.Errorf("ConfigureRoster(%d): got %d racers", n, len(racers))
		}
	}
}

func TestConfigureRosterClearsWagers(t *testing.T) {
	e := newTestEngine(t, 4, constantPace(0.1))
	if err := e.PlaceWager("alice", 1, 50); err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}
	if _, err := e.ConfigureRoster(4); err != nil {
		t.Fatalf("ConfigureRoster failed: %v", err)
	}
	if len(e.Wagers()) != 0 {
		t.Error("expected wagers to be cleared on roster configuration")
	}
}

func TestPlaceWagerValidation(t *testing.T) {
	e := newTestEngine(t, 3, constantPace(0.1))

	cases := []struct {
		name    string
		bettor  string
		racerID int
		amount  float64
	}{
		{"empty name", "", 1, 100},
		{"blank name", "   ", 1, 100},
		{"zero amount", "alice", 1, 0},
		{"negative amount", "alice", 1, -5},
		{"nan amount", "alice", 1, math.NaN()},
		{"infinite amount", "alice", 1, math.Inf(1)},
		{"unknown racer", "alice", 99, 100},
	}
	for _, tc := range cases {
		err := e.PlaceWager(tc.bettor, tc.racerID, tc.amount)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if len(e.Wagers()) != 0 {
			t.Errorf("%s: rejected wager mutated state", tc.name)
		}
	}

	if err := e.PlaceWager("alice", 2, 250); err != nil {
		t.Fatalf("valid wager rejected: %v", err)
	}
	if got := len(e.Wagers()[2]); got != 1 {
		t.Errorf("expected 1 wager on racer 2, got %d", got)
	}
}

func TestStartWithoutRoster(t *testing.T) {
	e := NewEngine()
	if err := e.Start(); !errors.Is(err, ErrNoRoster) {
		t.Errorf("expected ErrNoRoster, got %v", err)
	}
}

func TestStopHaltsTicks(t *testing.T) {
	e := newTestEngine(t, 3, constantPace(0.5))
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	e.Stop()
	if err := e.Tick(1, time.Second); err != nil {
		t.Fatalf("Tick after Stop failed: %v", err)
	}
	if p := e.Racers()[0].Progress; p != 0 {
		t.Errorf("tick after Stop moved racer to %f", p)
	}
}

func TestStandingsOrder(t *testing.T) {
	e := newTestEngine(t, 4, constantPace(0.5))
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Racer 2 finishes, racer 4 is mid-course, racers 1 and 3 unmoved.
	finishInOrder(t, e, []int{2})
	if err := e.Tick(4, 500*time.Millisecond); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	standings := e.Standings()
	if standings[0].ID != 2 {
		t.Errorf("expected finished racer 2 first, got %d", standings[0].ID)
	}
	if standings[1].ID != 4 {
		t.Errorf("expected racer 4 second, got %d", standings[1].ID)
	}
}
