package derby

import (
	"errors"
	"testing"
	"time"

	"tadpole-derby/race"
	"tadpole-derby/utils"
)

func TestWagerDebitMatchesEnginePool(t *testing.T) {
	utils.InitializeCache(time.Minute)
	defer utils.CloseCache()

	e := race.NewEngine()
	if _, err := e.ConfigureRoster(3); err != nil {
		t.Fatalf("ConfigureRoster failed: %v", err)
	}

	// A rejected wager must leave both the balance and the pool alone;
	// an unpaid stake in the pool would distort every other bettor's
	// payout at settlement.
	err := commitWager(e, 7, "alice", 99, 100)
	var verr *race.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown racer, got %v", err)
	}
	user, err := utils.GetCachedUser(7)
	if err != nil {
		t.Fatalf("GetCachedUser failed: %v", err)
	}
	if user.Chips != utils.StartingChips {
		t.Errorf("rejected wager moved chips: got %d, want %d", user.Chips, int64(utils.StartingChips))
	}
	if len(e.Wagers()) != 0 {
		t.Errorf("rejected wager reached the engine: %v", e.Wagers())
	}

	// An accepted wager debits exactly the staked amount.
	if err := commitWager(e, 7, "alice", 2, 100); err != nil {
		t.Fatalf("commitWager failed: %v", err)
	}
	user, err = utils.GetCachedUser(7)
	if err != nil {
		t.Fatalf("GetCachedUser failed: %v", err)
	}
	if want := int64(utils.StartingChips) - 100; user.Chips != want {
		t.Errorf("expected balance %d after wager, got %d", want, user.Chips)
	}
	if got := len(e.Wagers()[2]); got != 1 {
		t.Errorf("expected 1 wager on racer 2, got %d", got)
	}
}

func TestCancelOnlyBeforeRaceStarts(t *testing.T) {
	d := &Derby{Status: StatusRunning, Bets: []PlacedBet{{UserID: 1, Amount: 50}}}
	if _, ok := d.tryCancel(); ok {
		t.Error("running derby must not be cancellable")
	}
	if d.Status != StatusRunning {
		t.Errorf("failed cancel changed status to %s", d.Status)
	}

	d.Status = StatusBetting
	bets, ok := d.tryCancel()
	if !ok {
		t.Fatal("betting-phase derby should be cancellable")
	}
	if d.Status != StatusCancelled {
		t.Errorf("expected cancelled status, got %s", d.Status)
	}
	if len(bets) != 1 || bets[0].Amount != 50 {
		t.Errorf("expected the placed bet back for refunding, got %v", bets)
	}

	finished := &Derby{Status: StatusFinished}
	if _, ok := finished.tryCancel(); ok {
		t.Error("finished derby must not be cancellable")
	}
}
