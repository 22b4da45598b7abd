package race

import (
	"errors"
	"fmt"
)

var (
	// ErrRaceActive is returned for operations that are only legal while no race is running.
	ErrRaceActive = errors.New("race: a race is already running")
	// ErrNotFinished is returned when settlement is requested before every racer has finished.
	ErrNotFinished = errors.New("race: race has not finished")
	// ErrNoRoster is returned when starting a race before a roster has been configured.
	ErrNoRoster = errors.New("race: no roster configured")
)

// ValidationError reports rejected user input. The engine guarantees no
// state was mutated when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("race: invalid %s: %s", e.Field, e.Reason)
}
