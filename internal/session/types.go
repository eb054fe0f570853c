package session

import "fmt"

// State identifies a step of the route dialog.
type State string

const (
	// StateIdle means no flow is running; it is both initial and terminal.
	StateIdle                     State = "idle"
	StateAwaitingOrigin           State = "awaiting_origin"
	StateAwaitingDestination      State = "awaiting_destination"
	StateAwaitingStopoverDecision State = "awaiting_stopover_decision"
	StateAwaitingStopover         State = "awaiting_stopover"
	StateAwaitingHorizonChoice    State = "awaiting_horizon_choice"
)

// Session is a snapshot of one user's dialog. Route holds origin, destination
// and stopovers in entry order.
type Session struct {
	User  int64
	State State
	Route []string
}

// NoActiveSessionError is returned when a mutation targets a user that has
// never started a flow.
type NoActiveSessionError struct {
	User int64
}

func (e *NoActiveSessionError) Error() string {
	return fmt.Sprintf("no active session for user %d, send /weather to start", e.User)
}

// Code implements the router error-code contract.
func (e *NoActiveSessionError) Code() string { return "NO_ACTIVE_SESSION" }
