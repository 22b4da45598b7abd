package race

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// Engine owns all mutable race state for one channel: the roster, the
// active session, and the accumulated wagers. All access goes through
// its methods; there is no direct external mutation.
type Engine struct {
	mu   sync.Mutex
	rng  *rand.Rand
	pace PaceFunc
	now  func() time.Time

	racers []*Racer
	byID   map[int]*Racer
	wagers map[int][]Wager

	// Session state, reset on Start.
	startedAt    time.Time
	running      bool
	done         bool
	finished     map[int]struct{}
	nextPosition int
	roster       []int // id snapshot taken at Start; finish-all is judged against this
	speeds       map[int]float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithPace replaces the speed strategy, mainly for tests.
func WithPace(p PaceFunc) Option { return func(e *Engine) { e.pace = p } }

// WithRand replaces the random source.
func WithRand(rng *rand.Rand) Option { return func(e *Engine) { e.rng = rng } }

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine returns an engine with no roster. ConfigureRoster must be
// called before Start.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		pace:   DefaultPace,
		now:    time.Now,
		byID:   make(map[int]*Racer),
		wagers: make(map[int][]Wager),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ConfigureRoster replaces the roster with n freshly drawn tadpoles.
// Only permitted while no race is running. All wagers and session
// state are cleared.
func (e *Engine) ConfigureRoster(n int) ([]Racer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil, ErrRaceActive
	}
	if n < MinRosterSize || n > MaxRosterSize {
		return nil, &ValidationError{Field: "roster size", Reason: fmt.Sprintf("must be between %d and %d", MinRosterSize, MaxRosterSize)}
	}
	e.racers = pickRoster(e.rng, n)
	e.byID = make(map[int]*Racer, n)
	for _, r := range e.racers {
		e.byID[r.ID] = r
	}
	e.wagers = make(map[int][]Wager)
	e.startedAt = time.Time{}
	e.done = false
	e.finished = nil
	e.roster = nil
	return e.snapshotLocked(), nil
}

// Start begins a new session: progress and finish state reset, the
// roster is snapshotted, and the clock starts. Wagers placed during
// the betting phase are kept.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrRaceActive
	}
	if len(e.racers) == 0 {
		return ErrNoRoster
	}
	e.roster = make([]int, 0, len(e.racers))
	e.speeds = make(map[int]float64, len(e.racers))
	for _, r := range e.racers {
		r.Progress = 0
		r.Position = 0
		r.FinishTime = 0
		e.roster = append(e.roster, r.ID)
		e.speeds[r.ID] = e.pace(e.rng, 0)
	}
	e.finished = make(map[int]struct{}, len(e.racers))
	e.nextPosition = 1
	e.startedAt = e.now()
	e.done = false
	e.running = true
	return nil
}

// Stop halts the clock without settling. Ticks become no-ops until the
// next Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// Running reports whether a session is actively ticking.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Done reports whether the current session ended with every racer
// across the line. This is the settlement precondition.
func (e *Engine) Done() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Tick advances one racer by its current speed scaled by the elapsed
// frame time. The first time a racer reaches 1.0 its finish is
// registered; when the last roster member finishes, the session stops.
// Ticks outside a running session are no-ops.
func (e *Engine) Tick(racerID int, elapsed time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil
	}
	r, ok := e.byID[racerID]
	if !ok {
		return &ValidationError{Field: "racer", Reason: fmt.Sprintf("unknown id %d", racerID)}
	}
	if r.Progress >= 1 {
		return nil
	}
	e.speeds[racerID] = e.pace(e.rng, e.speeds[racerID])
	r.Progress += e.speeds[racerID] * elapsed.Seconds()
	if r.Progress >= 1 {
		r.Progress = 1
		e.registerFinish(r)
	}
	return nil
}

// registerFinish records a racer's arrival. Idempotent: a racer already
// in the finished set, or a session that never started, is a no-op.
// Caller holds e.mu.
func (e *Engine) registerFinish(r *Racer) {
	if e.startedAt.IsZero() {
		return
	}
	if _, already := e.finished[r.ID]; already {
		return
	}
	r.Position = e.nextPosition
	e.nextPosition++
	r.FinishTime = e.now().Sub(e.startedAt)
	e.finished[r.ID] = struct{}{}
	if len(e.finished) >= len(e.roster) {
		e.running = false
		e.done = true
	}
}

// PlaceWager records a stake on one racer. Input failures return a
// *ValidationError and leave all state untouched.
func (e *Engine) PlaceWager(bettor string, racerID int, amount float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	bettor = strings.TrimSpace(bettor)
	if bettor == "" {
		return &ValidationError{Field: "bettor", Reason: "name must not be empty"}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be a positive finite number"}
	}
	if _, ok := e.byID[racerID]; !ok {
		return &ValidationError{Field: "racer", Reason: fmt.Sprintf("unknown id %d", racerID)}
	}
	e.wagers[racerID] = append(e.wagers[racerID], Wager{Bettor: bettor, RacerID: racerID, Amount: amount})
	return nil
}

// Wagers returns a copy of all wagers keyed by racer id.
func (e *Engine) Wagers() map[int][]Wager {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[int][]Wager, len(e.wagers))
	for id, ws := range e.wagers {
		out[id] = append([]Wager(nil), ws...)
	}
	return out
}

// Standings returns racer copies for display: finished racers first by
// position, then the rest by progress descending.
func (e *Engine) Standings() []Racer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.snapshotLocked()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Position > 0) != (b.Position > 0) {
			return a.Position > 0
		}
		if a.Position > 0 {
			return a.Position < b.Position
		}
		return a.Progress > b.Progress
	})
	return out
}

// Racers returns racer copies in lane order.
func (e *Engine) Racers() []Racer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Settle computes the payout distribution for a finished session.
// Requesting it earlier fails with ErrNotFinished and mutates nothing.
func (e *Engine) Settle() (*Settlement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.done {
		return nil, ErrNotFinished
	}
	return settle(e.racers, e.wagers), nil
}

func (e *Engine) snapshotLocked() []Racer {
	out := make([]Racer, 0, len(e.racers))
	for _, r := range e.racers {
		out = append(out, *r)
	}
	return out
}
