package generation

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the watcher state
type State int

const (
	Idle State = iota
	Polling
	Ready
	// NotReady is terminal: a check-only watcher found nothing generated
	NotReady
	TimedOut
	Failed
)

var stateNames = map[State]string{
	Idle:     "idle",
	Polling:  "polling",
	Ready:    "ready",
	NotReady: "not_ready",
	TimedOut: "timed_out",
	Failed:   "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *State) UnmarshalText(b []byte) error {
	for state, name := range stateNames {
		if name == string(b) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", string(b))
}

// Terminal reports whether no further transitions can follow
func (s State) Terminal() bool {
	switch s {
	case Ready, NotReady, TimedOut, Failed:
		return true
	}
	return false
}

// Status is a snapshot of a watcher
type Status struct {
	State State `json:"state"`
	// Number of scheduled polls that found the entity not ready
	Attempt int `json:"attempt"`
	// The entity data as returned by the backend, set when Ready
	Payload json.RawMessage `json:"payload,omitempty"`
	// Failure message, set when Failed
	Message     string        `json:"message,omitempty"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at,omitempty"`
	Interval    time.Duration `json:"interval"`
	MaxAttempts int           `json:"max_attempts"`
}

// Remaining estimates the time left before the watcher gives up. It is only
// known while polling.
func (s Status) Remaining() (time.Duration, bool) {
	if s.State != Polling || s.Interval <= 0 || s.MaxAttempts <= 0 {
		return 0, false
	}
	left := s.MaxAttempts - s.Attempt
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * s.Interval, true
}

// Elapsed is the time since the watcher started
func (s Status) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

func (s Status) String() string {
	switch s.State {
	case Polling:
		return fmt.Sprintf("polling(%d/%d)", s.Attempt, s.MaxAttempts)
	case Failed:
		return fmt.Sprintf("failed(%s)", s.Message)
	case TimedOut:
		return fmt.Sprintf("timed_out(%d)", s.Attempt)
	}
	return s.State.String()
}
