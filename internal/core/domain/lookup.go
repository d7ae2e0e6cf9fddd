package domain

import (
	"time"

	"github.com/google/uuid"
)

// LookupPhase is the stage a lookup state machine is in.
type LookupPhase int

const (
	// Idle means no lookup has been triggered yet
	Idle LookupPhase = iota

	// Loading means a lookup cycle is in flight
	Loading

	// Displayed means the last lookup produced weather data
	Displayed

	// Failed means the last lookup ended with an error
	Failed
)

// String returns the lower-case phase name.
func (p LookupPhase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Displayed:
		return "displayed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// LookupState is the single state value a session holds.
// Exactly one phase holds at a time; the other fields are only meaningful for
// the phase that sets them.
type LookupState struct {
	Phase LookupPhase

	// Current and Forecast are set when Phase is Displayed
	Current  *CurrentConditions
	Forecast []ForecastDay

	// ErrorCode and Message are set when Phase is Failed
	ErrorCode string
	Message   string
}

// Trigger names the user action that started a lookup cycle.
type Trigger string

const (
	// TriggerCity is a submitted place name
	TriggerCity Trigger = "city"

	// TriggerLocation is a use-current-location request
	TriggerLocation Trigger = "location"
)

// LookupRecord describes one finished lookup cycle for auditing and metrics.
type LookupRecord struct {
	ID          uuid.UUID
	Sequence    uint64
	Trigger     Trigger
	Query       string
	Coordinates *Coordinates
	Outcome     LookupPhase
	ErrorCode   string
	Superseded  bool
	Duration    time.Duration
	StartedAt   time.Time
}
